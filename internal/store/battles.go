package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spamman4587/chromabot/internal/game"
)

const battleCols = "id, region_id, begins, ends, lockout_seconds, submission_id, resolved"

func scanBattle(row *sql.Row) (*game.Battle, error) {
	var b game.Battle
	var begins, ends, lockout int64
	var resolved int
	err := row.Scan(&b.ID, &b.RegionID, &begins, &ends, &lockout, &b.SubmissionID, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan battle: %w", err)
	}
	b.Begins = fromMillis(begins)
	b.Ends = fromMillis(ends)
	b.Lockout = time.Duration(lockout) * time.Second
	b.Resolved = resolved != 0
	return &b, nil
}

// CreateBattle inserts a battle and fills in its id.
func (t *Tx) CreateBattle(ctx context.Context, b *game.Battle) error {
	query := fmt.Sprintf(
		"INSERT INTO battles (region_id, begins, ends, lockout_seconds, submission_id, resolved) VALUES (%s)",
		t.binds(6))
	id, err := t.insertID(ctx, query, b.RegionID, toMillis(b.Begins), toMillis(b.Ends),
		int64(b.Lockout/time.Second), b.SubmissionID, boolInt(b.Resolved))
	if err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}
	b.ID = id
	return nil
}

// BattleByID loads a battle by id.
func (t *Tx) BattleByID(ctx context.Context, id int64) (*game.Battle, error) {
	return scanBattle(t.tx.QueryRowContext(ctx,
		"SELECT "+battleCols+" FROM battles WHERE id = "+t.bind(1), id))
}

// ActiveBattleByRegion returns the region's unresolved battle, if any.
// A region holds at most one.
func (t *Tx) ActiveBattleByRegion(ctx context.Context, regionID int64) (*game.Battle, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM battles WHERE region_id = %s AND resolved = 0", battleCols, t.bind(1))
	return scanBattle(t.tx.QueryRowContext(ctx, query, regionID))
}

// BattleBySubmission resolves a battle from its announcement thread id.
func (t *Tx) BattleBySubmission(ctx context.Context, submissionID string) (*game.Battle, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM battles WHERE submission_id = %s AND resolved = 0", battleCols, t.bind(1))
	return scanBattle(t.tx.QueryRowContext(ctx, query, submissionID))
}

// UnresolvedBattles lists every battle still awaiting resolution.
func (t *Tx) UnresolvedBattles(ctx context.Context) ([]*game.Battle, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT "+battleCols+" FROM battles WHERE resolved = 0 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved battles: %w", err)
	}
	defer rows.Close()

	var battles []*game.Battle
	for rows.Next() {
		var b game.Battle
		var begins, ends, lockout int64
		var resolved int
		if err := rows.Scan(&b.ID, &b.RegionID, &begins, &ends, &lockout, &b.SubmissionID, &resolved); err != nil {
			return nil, err
		}
		b.Begins = fromMillis(begins)
		b.Ends = fromMillis(ends)
		b.Lockout = time.Duration(lockout) * time.Second
		b.Resolved = resolved != 0
		battles = append(battles, &b)
	}
	return battles, rows.Err()
}

// SaveBattle writes back the battle's mutable fields.
func (t *Tx) SaveBattle(ctx context.Context, b *game.Battle) error {
	query := fmt.Sprintf(
		"UPDATE battles SET begins = %s, ends = %s, lockout_seconds = %s, submission_id = %s, resolved = %s WHERE id = %s",
		t.bind(1), t.bind(2), t.bind(3), t.bind(4), t.bind(5), t.bind(6))
	_, err := t.tx.ExecContext(ctx, query, toMillis(b.Begins), toMillis(b.Ends),
		int64(b.Lockout/time.Second), b.SubmissionID, boolInt(b.Resolved), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update battle %d: %w", b.ID, err)
	}
	return nil
}
