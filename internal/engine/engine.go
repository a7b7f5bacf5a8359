// Package engine implements the territorial conflict engine: region
// ownership and adjacency, the invasion/battle timing state machine,
// troop movement with transit delay, and the recursive skirmish tree
// used to resolve battles.
//
// The engine never talks to the network. Every operation runs against a
// store.Tx supplied by the caller, mutates state atomically within it,
// and returns either a success value or one of the typed failures in
// the game package. The caller commits or rolls back per the
// operation's side-effect contract.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/rules"
	"github.com/Spamman4587/chromabot/internal/store"
)

// Config carries the game constants supplied by the process
// configuration. The engine computes none of them.
type Config struct {
	BattleDelay    time.Duration // command time to battle begin
	BattleDuration time.Duration
	BattleLockout  time.Duration // trailing no-new-offensives window
	MoveSpeed      time.Duration // transit time for a movement order
	Username       string        // the bot's own platform identity
	Formula        string        // troop effectiveness CEL expression
}

// Engine composes the Ledger, RegionGraph, MovementScheduler,
// BattleLifecycle, and SkirmishTree behind the operations the command
// layer consumes.
type Engine struct {
	cfg      Config
	resolver *rules.Resolver
	clock    func() time.Time
}

// New builds an engine. An empty Formula falls back to the stock
// effectiveness expression.
func New(cfg Config) (*Engine, error) {
	formula := cfg.Formula
	if formula == "" {
		formula = rules.DefaultFormula
	}
	resolver, err := rules.NewResolver(formula)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize battle resolver: %w", err)
	}
	return &Engine{cfg: cfg, resolver: resolver, clock: time.Now}, nil
}

// Config returns the engine's game constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Lookup resolves a region by name or channel id.
func (e *Engine) Lookup(ctx context.Context, tx *store.Tx, key string) (*game.Region, error) {
	return tx.RegionByKey(ctx, key)
}

// Invade opens a battle for an enemy region. The battle is created in
// scheduled state with the given begin time; its announcement thread id
// stays empty until the caller confirms the outward post, and the caller
// must roll back the transaction if that confirmation never arrives.
func (e *Engine) Invade(ctx context.Context, tx *store.Tx, player *game.Player, target *game.Region, begins time.Time) (*game.Battle, error) {
	if !player.Rank.CanInvade() && !player.Leader {
		return nil, &game.RankError{Required: game.RankGeneral}
	}
	if target.Owner == player.Team {
		return nil, &game.TeamError{Friendly: true}
	}

	current, err := tx.RegionByID(ctx, player.RegionID)
	if err != nil {
		return nil, err
	}
	if !current.IsAdjacent(target.ID) {
		return nil, &game.NonAdjacentError{From: current, To: target}
	}

	existing, err := tx.ActiveBattleByRegion(ctx, target.ID)
	if err == nil {
		return nil, &game.InProgressError{Battle: existing}
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	battle := &game.Battle{
		RegionID: target.ID,
		Begins:   begins,
		Ends:     begins.Add(e.cfg.BattleDuration),
		Lockout:  e.cfg.BattleLockout,
	}
	if err := tx.CreateBattle(ctx, battle); err != nil {
		return nil, err
	}

	player.Defectable = false
	if err := tx.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return battle, nil
}

// ConfirmSubmission attaches the announcement thread id to a battle once
// the outward post is confirmed.
func (e *Engine) ConfirmSubmission(ctx context.Context, tx *store.Tx, battle *game.Battle, submissionID string) error {
	battle.SubmissionID = submissionID
	return tx.SaveBattle(ctx, battle)
}
