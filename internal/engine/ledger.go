package engine

import (
	"context"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// Defect switches a player's team and relocates them to the new team's
// capital. Only players who have taken no game action may defect.
func (e *Engine) Defect(ctx context.Context, tx *store.Tx, player *game.Player, team game.Team) error {
	if team == player.Team {
		return &game.TeamError{Friendly: true}
	}
	if !player.Defectable {
		return &game.TimingError{Side: game.TimingLate}
	}

	capital, err := tx.CapitalOf(ctx, team)
	if err != nil {
		return err
	}
	player.Team = team
	player.RegionID = capital.ID
	return tx.SavePlayer(ctx, player)
}

// Promote sets or clears the leader flag on the named player. The
// acting player's own leadership is a capability check that belongs to
// the caller, not a domain rule enforced here.
func (e *Engine) Promote(ctx context.Context, tx *store.Tx, targetName string, grantLeader bool) (*game.Player, error) {
	target, err := tx.PlayerByName(ctx, targetName)
	if err != nil {
		return nil, err
	}
	target.Leader = grantLeader
	if err := tx.SavePlayer(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
