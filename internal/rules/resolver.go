// Package rules decides battle outcomes. The troop-effectiveness formula
// is a CEL expression so operators can tune the combat balance without a
// rebuild; the recursive margin algorithm around it is fixed.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/Spamman4587/chromabot/internal/game"
)

// DefaultFormula is the stock effectiveness expression: each troop type
// gets a 50% bonus against the type it counters.
const DefaultFormula = `attacker == 'cavalry' && defender == 'ranged' ? 1.5 :
attacker == 'ranged' && defender == 'infantry' ? 1.5 :
attacker == 'infantry' && defender == 'cavalry' ? 1.5 : 1.0`

// Node is one skirmish of a battle tree annotated with the committing
// player's team, built by the engine before resolution.
type Node struct {
	Action   *game.SkirmishAction
	Team     game.Team
	Children []*Node
}

// Outcome is the result of resolving one battle.
type Outcome struct {
	Winner game.Team
	// Margin is the summed signed force of the root offensives; positive
	// means the attackers carried the field.
	Margin float64
}

// Resolver evaluates skirmish trees into a battle outcome.
type Resolver struct {
	prg cel.Program
}

// NewResolver compiles an effectiveness formula. The expression sees two
// string variables, attacker and defender, and must yield a double
// multiplier.
func NewResolver(formula string) (*Resolver, error) {
	env, err := cel.NewEnv(
		cel.Variable("attacker", cel.StringType),
		cel.Variable("defender", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build rules environment: %w", err)
	}
	ast, iss := env.Compile(formula)
	if iss.Err() != nil {
		return nil, fmt.Errorf("failed to compile effectiveness formula: %w", iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build effectiveness program: %w", err)
	}
	return &Resolver{prg: prg}, nil
}

// Effectiveness returns the force multiplier of one troop type engaging
// another.
func (r *Resolver) Effectiveness(attacker, defender game.TroopType) (float64, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"attacker": string(attacker),
		"defender": string(defender),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate effectiveness: %w", err)
	}
	switch v := out.Value().(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("effectiveness formula returned %T, want number", out.Value())
}

// Margin computes a node's net force: its own committed amount plus
// supporting children minus opposing children, deepest nodes first. Each
// child's force is scaled by its effectiveness against the node it
// engages.
func (r *Resolver) Margin(n *Node) (float64, error) {
	total := float64(n.Action.Amount)
	for _, c := range n.Children {
		sub, err := r.Margin(c)
		if err != nil {
			return 0, err
		}
		eff, err := r.Effectiveness(c.Action.TroopType, n.Action.TroopType)
		if err != nil {
			return 0, err
		}
		if c.Action.Side == n.Action.Side {
			total += sub * eff
		} else {
			total -= sub * eff
		}
	}
	return total, nil
}

// Resolve sums the margins of every root offensive, signed by the
// rooting player's team. Attackers win the battle when the total is
// positive; otherwise the defending owner holds.
func (r *Resolver) Resolve(attackers, defenders game.Team, roots []*Node) (*Outcome, error) {
	var total float64
	for _, root := range roots {
		m, err := r.Margin(root)
		if err != nil {
			return nil, err
		}
		if root.Team == attackers {
			total += m
		} else {
			total -= m
		}
	}
	winner := defenders
	if total > 0 {
		winner = attackers
	}
	return &Outcome{Winner: winner, Margin: total}, nil
}
