package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spamman4587/chromabot/internal/game"
)

const movementCols = "id, player_id, dest_id, amount, departs, arrives"

func scanMovement(row *sql.Row) (*game.MovementOrder, error) {
	var m game.MovementOrder
	var departs, arrives int64
	err := row.Scan(&m.ID, &m.PlayerID, &m.DestID, &m.Amount, &departs, &arrives)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movement: %w", err)
	}
	m.Departs = fromMillis(departs)
	m.Arrives = fromMillis(arrives)
	return &m, nil
}

// CreateMovement inserts a transit order and fills in its id. The unique
// constraint on player_id backs the one-open-order-per-player invariant.
func (t *Tx) CreateMovement(ctx context.Context, m *game.MovementOrder) error {
	query := fmt.Sprintf(
		"INSERT INTO movements (player_id, dest_id, amount, departs, arrives) VALUES (%s)",
		t.binds(5))
	id, err := t.insertID(ctx, query, m.PlayerID, m.DestID, m.Amount,
		toMillis(m.Departs), toMillis(m.Arrives))
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}
	m.ID = id
	return nil
}

// MovementByPlayer returns the player's open transit order, if any.
func (t *Tx) MovementByPlayer(ctx context.Context, playerID int64) (*game.MovementOrder, error) {
	return scanMovement(t.tx.QueryRowContext(ctx,
		"SELECT "+movementCols+" FROM movements WHERE player_id = "+t.bind(1), playerID))
}

// DueMovements lists orders whose arrival time has passed.
func (t *Tx) DueMovements(ctx context.Context, now time.Time) ([]*game.MovementOrder, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM movements WHERE arrives <= %s ORDER BY arrives", movementCols, t.bind(1))
	rows, err := t.tx.QueryContext(ctx, query, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list due movements: %w", err)
	}
	defer rows.Close()

	var orders []*game.MovementOrder
	for rows.Next() {
		var m game.MovementOrder
		var departs, arrives int64
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.DestID, &m.Amount, &departs, &arrives); err != nil {
			return nil, err
		}
		m.Departs = fromMillis(departs)
		m.Arrives = fromMillis(arrives)
		orders = append(orders, &m)
	}
	return orders, rows.Err()
}

// DeleteMovement consumes an order upon arrival.
func (t *Tx) DeleteMovement(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx,
		"DELETE FROM movements WHERE id = "+t.bind(1), id); err != nil {
		return fmt.Errorf("failed to delete movement %d: %w", id, err)
	}
	return nil
}
