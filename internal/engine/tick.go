package engine

import (
	"context"
	"time"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/rules"
	"github.com/Spamman4587/chromabot/internal/store"
)

// TickReport summarizes one pass of time-driven advancement.
type TickReport struct {
	Arrivals []*game.MovementOrder
	Resolved []*BattleResult
}

// BattleResult pairs a finished battle with its outcome.
type BattleResult struct {
	Battle  *game.Battle
	Region  *game.Region
	Outcome *rules.Outcome
}

// Tick advances the time-driven side of the game: movement orders whose
// arrival time has passed are completed, and battles past their end are
// resolved. Player-driven operations never depend on a tick having run;
// the scheduled/active/locked phases derive from the clock alone.
func (e *Engine) Tick(ctx context.Context, tx *store.Tx, now time.Time) (*TickReport, error) {
	report := &TickReport{}

	due, err := tx.DueMovements(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, order := range due {
		if err := e.CompleteArrival(ctx, tx, order); err != nil {
			return nil, err
		}
		report.Arrivals = append(report.Arrivals, order)
	}

	battles, err := tx.UnresolvedBattles(ctx)
	if err != nil {
		return nil, err
	}
	for _, battle := range battles {
		if now.Before(battle.Ends) {
			continue
		}
		result, err := e.resolveBattle(ctx, tx, battle)
		if err != nil {
			return nil, err
		}
		report.Resolved = append(report.Resolved, result)
	}
	return report, nil
}

// resolveBattle hands the skirmish forest to the resolution strategy,
// transfers ownership if the attackers won, releases every commitment,
// and charges the losing team its committed troops.
func (e *Engine) resolveBattle(ctx context.Context, tx *store.Tx, battle *game.Battle) (*BattleResult, error) {
	region, err := tx.RegionByID(ctx, battle.RegionID)
	if err != nil {
		return nil, err
	}

	nodes, err := tx.SkirmishesByBattle(ctx, battle.ID)
	if err != nil {
		return nil, err
	}

	players := make(map[int64]*game.Player)
	for _, n := range nodes {
		if _, ok := players[n.PlayerID]; ok {
			continue
		}
		p, err := tx.PlayerByID(ctx, n.PlayerID)
		if err != nil {
			return nil, err
		}
		players[n.PlayerID] = p
	}

	byID := make(map[int64]*rules.Node, len(nodes))
	var roots []*rules.Node
	for _, n := range nodes {
		byID[n.ID] = &rules.Node{Action: n, Team: players[n.PlayerID].Team}
	}
	for _, n := range nodes {
		if n.IsRoot() {
			roots = append(roots, byID[n.ID])
			continue
		}
		parent := byID[n.ParentID]
		parent.Children = append(parent.Children, byID[n.ID])
	}

	attackers := region.Owner.Enemy()
	outcome, err := e.resolver.Resolve(attackers, region.Owner, roots)
	if err != nil {
		return nil, err
	}
	if outcome.Winner == attackers {
		region.Owner = attackers
		if err := tx.SetOwner(ctx, region.ID, attackers); err != nil {
			return nil, err
		}
	}

	committed := make(map[int64]int)
	for _, n := range nodes {
		committed[n.PlayerID] += n.Amount
	}
	for id, amount := range committed {
		p := players[id]
		p.Committed -= amount
		if p.Team != outcome.Winner {
			p.Loyalists -= amount
		}
		if err := tx.SavePlayer(ctx, p); err != nil {
			return nil, err
		}
	}

	battle.Resolved = true
	if err := tx.SaveBattle(ctx, battle); err != nil {
		return nil, err
	}
	return &BattleResult{Battle: battle, Region: region, Outcome: outcome}, nil
}
