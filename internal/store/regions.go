package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spamman4587/chromabot/internal/game"
)

func (t *Tx) scanRegion(ctx context.Context, row *sql.Row) (*game.Region, error) {
	var r game.Region
	var owner int
	var capital sql.NullInt64
	err := row.Scan(&r.ID, &r.Name, &r.Channel, &owner, &capital)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan region: %w", err)
	}
	r.Owner = game.Team(owner)
	if capital.Valid {
		team := game.Team(capital.Int64)
		r.Capital = &team
	}
	if err := t.loadAdjacency(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) loadAdjacency(ctx context.Context, r *game.Region) error {
	query := "SELECT adjacent_id FROM region_adjacency WHERE region_id = " + t.bind(1)
	rows, err := t.tx.QueryContext(ctx, query, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load adjacency for %s: %w", r.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		r.Adjacent = append(r.Adjacent, id)
	}
	return rows.Err()
}

// CreateRegion inserts a region and fills in its id. Adjacency is added
// separately with AddAdjacency.
func (t *Tx) CreateRegion(ctx context.Context, r *game.Region) error {
	var capital any
	if r.Capital != nil {
		capital = int(*r.Capital)
	}
	query := fmt.Sprintf("INSERT INTO regions (name, channel, owner, capital) VALUES (%s)", t.binds(4))
	id, err := t.insertID(ctx, query, r.Name, r.Channel, int(r.Owner), capital)
	if err != nil {
		return fmt.Errorf("failed to insert region %s: %w", r.Name, err)
	}
	r.ID = id
	return nil
}

// AddAdjacency records that a and b border each other, in both directions.
func (t *Tx) AddAdjacency(ctx context.Context, a, b int64) error {
	query := fmt.Sprintf("INSERT INTO region_adjacency (region_id, adjacent_id) VALUES (%s)", t.binds(2))
	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		if _, err := t.tx.ExecContext(ctx, query, pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to insert adjacency: %w", err)
		}
	}
	return nil
}

// RegionByKey resolves a region by name or, failing that, by channel id.
func (t *Tx) RegionByKey(ctx context.Context, key string) (*game.Region, error) {
	r, err := t.scanRegion(ctx, t.tx.QueryRowContext(ctx,
		"SELECT id, name, channel, owner, capital FROM regions WHERE name = "+t.bind(1), key))
	if err == nil || !errors.Is(err, ErrNotFound) {
		return r, err
	}
	return t.scanRegion(ctx, t.tx.QueryRowContext(ctx,
		"SELECT id, name, channel, owner, capital FROM regions WHERE channel = "+t.bind(1), key))
}

// RegionByID loads a region by id.
func (t *Tx) RegionByID(ctx context.Context, id int64) (*game.Region, error) {
	return t.scanRegion(ctx, t.tx.QueryRowContext(ctx,
		"SELECT id, name, channel, owner, capital FROM regions WHERE id = "+t.bind(1), id))
}

// Regions loads every region, ordered by name.
func (t *Tx) Regions(ctx context.Context) ([]*game.Region, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT id FROM regions ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	regions := make([]*game.Region, 0, len(ids))
	for _, id := range ids {
		r, err := t.RegionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// CapitalOf returns the capital region of a team.
func (t *Tx) CapitalOf(ctx context.Context, team game.Team) (*game.Region, error) {
	return t.scanRegion(ctx, t.tx.QueryRowContext(ctx,
		"SELECT id, name, channel, owner, capital FROM regions WHERE capital = "+t.bind(1), int(team)))
}

// SetOwner transfers region ownership. Only battle resolution calls this.
func (t *Tx) SetOwner(ctx context.Context, regionID int64, team game.Team) error {
	query := fmt.Sprintf("UPDATE regions SET owner = %s WHERE id = %s", t.bind(1), t.bind(2))
	if _, err := t.tx.ExecContext(ctx, query, int(team), regionID); err != nil {
		return fmt.Errorf("failed to set region owner: %w", err)
	}
	return nil
}
