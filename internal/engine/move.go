package engine

import (
	"context"
	"errors"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// Move schedules a troop relocation into adjacent friendly territory.
// A nil order with a nil error means the transit time was zero and the
// player has already arrived. Issuing any move marks the player
// non-defectable.
func (e *Engine) Move(ctx context.Context, tx *store.Tx, player *game.Player, amount int, dest *game.Region) (*game.MovementOrder, error) {
	if amount <= 0 || amount > player.Uncommitted() {
		return nil, &game.InsufficientError{Requested: amount, Available: player.Loyalists}
	}

	current, err := tx.RegionByID(ctx, player.RegionID)
	if err != nil {
		return nil, err
	}
	if !current.IsAdjacent(dest.ID) {
		return nil, &game.NonAdjacentError{From: current, To: dest}
	}
	if dest.Owner != player.Team {
		// Movement never changes ownership; that takes an invasion.
		return nil, &game.TeamError{Friendly: false}
	}

	if order, err := tx.MovementByPlayer(ctx, player.ID); err == nil {
		return nil, &game.InProgressError{Order: order}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if root, err := tx.UnresolvedRootByPlayer(ctx, player.ID); err == nil {
		battle, err := tx.BattleByID(ctx, root.BattleID)
		if err != nil {
			return nil, err
		}
		return nil, &game.InProgressError{Battle: battle}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	player.Defectable = false

	if e.cfg.MoveSpeed <= 0 {
		// Instant arrival; no order to track.
		player.RegionID = dest.ID
		if err := tx.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := e.clock()
	order := &game.MovementOrder{
		PlayerID: player.ID,
		DestID:   dest.ID,
		Amount:   amount,
		Departs:  now,
		Arrives:  now.Add(e.cfg.MoveSpeed),
	}
	if err := tx.CreateMovement(ctx, order); err != nil {
		return nil, err
	}
	if err := tx.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteArrival consumes a due movement order, relocating its player.
// The tick collaborator invokes this once the arrival time has passed.
func (e *Engine) CompleteArrival(ctx context.Context, tx *store.Tx, order *game.MovementOrder) error {
	player, err := tx.PlayerByID(ctx, order.PlayerID)
	if err != nil {
		return err
	}
	player.RegionID = order.DestID
	if err := tx.SavePlayer(ctx, player); err != nil {
		return err
	}
	return tx.DeleteMovement(ctx, order.ID)
}
