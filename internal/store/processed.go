package store

import (
	"context"
	"fmt"
)

// MarkProcessed records an examined message id against a battle. Markers
// are write-once; replays are ignored so re-scanning a reply chain stays
// idempotent.
func (t *Tx) MarkProcessed(ctx context.Context, messageID string, battleID int64) error {
	var query string
	if t.dialect == DialectPostgres {
		query = fmt.Sprintf(
			"INSERT INTO processed (message_id, battle_id) VALUES (%s) ON CONFLICT (message_id) DO NOTHING",
			t.binds(2))
	} else {
		query = fmt.Sprintf(
			"INSERT OR IGNORE INTO processed (message_id, battle_id) VALUES (%s)", t.binds(2))
	}
	if _, err := t.tx.ExecContext(ctx, query, messageID, battleID); err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether a message id has already been examined.
func (t *Tx) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM processed WHERE message_id = " + t.bind(1)
	if err := t.tx.QueryRowContext(ctx, query, messageID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check processed marker: %w", err)
	}
	return count > 0, nil
}
