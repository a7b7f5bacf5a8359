package engine

import (
	"context"
	"errors"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// requirePresent checks that the player is encamped in the battle's
// region. A player in transit is never present anywhere.
func (e *Engine) requirePresent(ctx context.Context, tx *store.Tx, player *game.Player, battle *game.Battle) error {
	order, err := tx.MovementByPlayer(ctx, player.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if order != nil || player.RegionID != battle.RegionID {
		region, rerr := tx.RegionByID(ctx, player.RegionID)
		if rerr != nil {
			return rerr
		}
		return &game.NotPresentError{Region: region, Moving: order}
	}
	return nil
}

// commit reserves troops from the player's uncommitted pool.
func commit(ctx context.Context, tx *store.Tx, player *game.Player, amount int) error {
	if amount <= 0 || amount > player.Uncommitted() {
		return &game.InsufficientError{Requested: amount, Available: player.Uncommitted()}
	}
	player.Committed += amount
	player.Defectable = false
	return tx.SavePlayer(ctx, player)
}

// CreateRoot opens a top-level offensive in an active, unlocked battle.
// A player may author at most one root node per battle.
func (e *Engine) CreateRoot(ctx context.Context, tx *store.Tx, battle *game.Battle, player *game.Player, amount int, troopType game.TroopType) (*game.SkirmishAction, error) {
	switch battle.Phase(e.clock()) {
	case game.PhaseScheduled:
		return nil, &game.TimingError{Side: game.TimingEarly}
	case game.PhaseLocked, game.PhaseResolved:
		return nil, &game.TimingError{Side: game.TimingLate}
	}

	if err := e.requirePresent(ctx, tx, player, battle); err != nil {
		return nil, err
	}

	if _, err := tx.RootSkirmishByPlayer(ctx, battle.ID, player.ID); err == nil {
		return nil, &game.InProgressError{Battle: battle}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := commit(ctx, tx, player, amount); err != nil {
		return nil, err
	}

	node := &game.SkirmishAction{
		BattleID:  battle.ID,
		PlayerID:  player.ID,
		Amount:    amount,
		TroopType: troopType,
		Side:      game.SideOffense,
	}
	if err := tx.CreateSkirmish(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// React appends a child node to an existing skirmish. Hindering opposes
// the parent; supporting joins its side. Reactions stay open through the
// lockout window but not past resolution.
func (e *Engine) React(ctx context.Context, tx *store.Tx, parent *game.SkirmishAction, player *game.Player, amount int, hinder bool, troopType game.TroopType) (*game.SkirmishAction, error) {
	battle, err := tx.BattleByID(ctx, parent.BattleID)
	if err != nil {
		return nil, err
	}
	if battle.Resolved {
		return nil, &game.TimingError{Side: game.TimingLate}
	}

	if err := e.requirePresent(ctx, tx, player, battle); err != nil {
		return nil, err
	}

	author, err := tx.PlayerByID(ctx, parent.PlayerID)
	if err != nil {
		return nil, err
	}
	if hinder && author.Team == player.Team {
		return nil, &game.TeamError{Friendly: true}
	}
	if !hinder && author.Team != player.Team {
		return nil, &game.TeamError{Friendly: false}
	}

	if err := commit(ctx, tx, player, amount); err != nil {
		return nil, err
	}

	side := parent.Side
	if hinder {
		side = parent.Side.Opposite()
	}
	node := &game.SkirmishAction{
		BattleID:  battle.ID,
		ParentID:  parent.ID,
		PlayerID:  player.ID,
		Amount:    amount,
		TroopType: troopType,
		Side:      side,
	}
	if err := tx.CreateSkirmish(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// FindByID resolves a skirmish node by its id.
func (e *Engine) FindByID(ctx context.Context, tx *store.Tx, id int64) (*game.SkirmishAction, error) {
	return tx.SkirmishByID(ctx, id)
}

// FindByMessageID resolves a skirmish node from the id of its confirmed
// reply.
func (e *Engine) FindByMessageID(ctx context.Context, tx *store.Tx, messageID string) (*game.SkirmishAction, error) {
	return tx.SkirmishByComment(ctx, messageID)
}

// Root walks parent links to the top-level node of a skirmish's tree.
// Trees are acyclic by construction, so this terminates.
func (e *Engine) Root(ctx context.Context, tx *store.Tx, node *game.SkirmishAction) (*game.SkirmishAction, error) {
	for !node.IsRoot() {
		parent, err := tx.SkirmishByID(ctx, node.ParentID)
		if err != nil {
			return nil, err
		}
		node = parent
	}
	return node, nil
}

// ConfirmComment attaches the confirmed reply id to a node.
func (e *Engine) ConfirmComment(ctx context.Context, tx *store.Tx, node *game.SkirmishAction, commentID string) error {
	node.CommentID = commentID
	return tx.SetSkirmishComment(ctx, node.ID, commentID)
}
