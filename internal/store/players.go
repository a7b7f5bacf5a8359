package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spamman4587/chromabot/internal/game"
)

const playerCols = "id, name, team, rank, leader, region_id, loyalists, committed, defectable"

func scanPlayer(row *sql.Row) (*game.Player, error) {
	var p game.Player
	var team, rank, leader, defectable int
	err := row.Scan(&p.ID, &p.Name, &team, &rank, &leader, &p.RegionID,
		&p.Loyalists, &p.Committed, &defectable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	p.Team = game.Team(team)
	p.Rank = game.Rank(rank)
	p.Leader = leader != 0
	p.Defectable = defectable != 0
	return &p, nil
}

// CreatePlayer inserts a new player and fills in its id.
func (t *Tx) CreatePlayer(ctx context.Context, p *game.Player) error {
	query := fmt.Sprintf(
		"INSERT INTO players (name, team, rank, leader, region_id, loyalists, committed, defectable) VALUES (%s)",
		t.binds(8))
	id, err := t.insertID(ctx, query, p.Name, int(p.Team), int(p.Rank), boolInt(p.Leader),
		p.RegionID, p.Loyalists, p.Committed, boolInt(p.Defectable))
	if err != nil {
		return fmt.Errorf("failed to insert player %s: %w", p.Name, err)
	}
	p.ID = id
	return nil
}

// PlayerByName loads a player by name. On Postgres the row is locked for
// the duration of the transaction, serializing commands per player.
func (t *Tx) PlayerByName(ctx context.Context, name string) (*game.Player, error) {
	query := "SELECT " + playerCols + " FROM players WHERE name = " + t.bind(1)
	if t.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}
	return scanPlayer(t.tx.QueryRowContext(ctx, query, name))
}

// PlayerByID loads a player by id.
func (t *Tx) PlayerByID(ctx context.Context, id int64) (*game.Player, error) {
	query := "SELECT " + playerCols + " FROM players WHERE id = " + t.bind(1)
	return scanPlayer(t.tx.QueryRowContext(ctx, query, id))
}

// SavePlayer writes back every mutable player field.
func (t *Tx) SavePlayer(ctx context.Context, p *game.Player) error {
	query := fmt.Sprintf(
		"UPDATE players SET team = %s, rank = %s, leader = %s, region_id = %s, loyalists = %s, committed = %s, defectable = %s WHERE id = %s",
		t.bind(1), t.bind(2), t.bind(3), t.bind(4), t.bind(5), t.bind(6), t.bind(7), t.bind(8))
	_, err := t.tx.ExecContext(ctx, query, int(p.Team), int(p.Rank), boolInt(p.Leader),
		p.RegionID, p.Loyalists, p.Committed, boolInt(p.Defectable), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", p.Name, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
