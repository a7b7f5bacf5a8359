package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spamman4587/chromabot/internal/game"
)

const skirmishCols = "id, battle_id, parent_id, player_id, amount, troop_type, side, comment_id"

func scanSkirmish(row *sql.Row) (*game.SkirmishAction, error) {
	var s game.SkirmishAction
	var troopType string
	var side int
	err := row.Scan(&s.ID, &s.BattleID, &s.ParentID, &s.PlayerID, &s.Amount,
		&troopType, &side, &s.CommentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan skirmish: %w", err)
	}
	s.TroopType = game.TroopType(troopType)
	s.Side = game.Side(side)
	return &s, nil
}

// CreateSkirmish inserts a skirmish node and fills in its id.
func (t *Tx) CreateSkirmish(ctx context.Context, s *game.SkirmishAction) error {
	query := fmt.Sprintf(
		"INSERT INTO skirmishes (battle_id, parent_id, player_id, amount, troop_type, side, comment_id) VALUES (%s)",
		t.binds(7))
	id, err := t.insertID(ctx, query, s.BattleID, s.ParentID, s.PlayerID, s.Amount,
		string(s.TroopType), int(s.Side), s.CommentID)
	if err != nil {
		return fmt.Errorf("failed to insert skirmish: %w", err)
	}
	s.ID = id
	return nil
}

// SkirmishByID loads a node by its id.
func (t *Tx) SkirmishByID(ctx context.Context, id int64) (*game.SkirmishAction, error) {
	return scanSkirmish(t.tx.QueryRowContext(ctx,
		"SELECT "+skirmishCols+" FROM skirmishes WHERE id = "+t.bind(1), id))
}

// SkirmishByComment loads a node by the id of its confirmed reply.
func (t *Tx) SkirmishByComment(ctx context.Context, commentID string) (*game.SkirmishAction, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM skirmishes WHERE comment_id = %s AND comment_id != ''", skirmishCols, t.bind(1))
	return scanSkirmish(t.tx.QueryRowContext(ctx, query, commentID))
}

// RootSkirmishByPlayer finds the player's top-level node in a battle,
// enforcing the one-root-per-player-per-battle rule.
func (t *Tx) RootSkirmishByPlayer(ctx context.Context, battleID, playerID int64) (*game.SkirmishAction, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM skirmishes WHERE battle_id = %s AND player_id = %s AND parent_id = 0",
		skirmishCols, t.bind(1), t.bind(2))
	return scanSkirmish(t.tx.QueryRowContext(ctx, query, battleID, playerID))
}

// SkirmishesByBattle loads every node of a battle's tree, in id order.
func (t *Tx) SkirmishesByBattle(ctx context.Context, battleID int64) ([]*game.SkirmishAction, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM skirmishes WHERE battle_id = %s ORDER BY id", skirmishCols, t.bind(1))
	rows, err := t.tx.QueryContext(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skirmishes: %w", err)
	}
	defer rows.Close()

	var nodes []*game.SkirmishAction
	for rows.Next() {
		var s game.SkirmishAction
		var troopType string
		var side int
		if err := rows.Scan(&s.ID, &s.BattleID, &s.ParentID, &s.PlayerID, &s.Amount,
			&troopType, &side, &s.CommentID); err != nil {
			return nil, err
		}
		s.TroopType = game.TroopType(troopType)
		s.Side = game.Side(side)
		nodes = append(nodes, &s)
	}
	return nodes, rows.Err()
}

// SetSkirmishComment attaches the confirmed reply id to a node.
func (t *Tx) SetSkirmishComment(ctx context.Context, id int64, commentID string) error {
	query := fmt.Sprintf("UPDATE skirmishes SET comment_id = %s WHERE id = %s", t.bind(1), t.bind(2))
	if _, err := t.tx.ExecContext(ctx, query, commentID, id); err != nil {
		return fmt.Errorf("failed to set skirmish comment: %w", err)
	}
	return nil
}

// UnresolvedRootByPlayer finds a top-level offensive the player authored in
// any battle still awaiting resolution. Used by the movement exclusivity
// check.
func (t *Tx) UnresolvedRootByPlayer(ctx context.Context, playerID int64) (*game.SkirmishAction, error) {
	query := fmt.Sprintf(
		`SELECT s.id, s.battle_id, s.parent_id, s.player_id, s.amount, s.troop_type, s.side, s.comment_id
 FROM skirmishes s
 WHERE s.player_id = %s AND s.parent_id = 0
   AND EXISTS (SELECT 1 FROM battles b WHERE b.id = s.battle_id AND b.resolved = 0)`,
		t.bind(1))
	return scanSkirmish(t.tx.QueryRowContext(ctx, query, playerID))
}
