// Package store persists the game state behind database/sql, speaking
// either SQLite (the default) or Postgres. Every engine operation runs
// inside a Tx handed in by the caller, who commits or rolls back based on
// the operation's side-effect contract.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQL handle with dialect-aware helpers.
type Store struct {
	dialect Dialect
	db      *sql.DB
}

// Open connects to the database, applies embedded migrations, and returns
// the store. For SQLite the dsn is a file path; for Postgres a full DSN.
func Open(dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: dsn is required")
	}

	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
		dsn = dsn + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("store: unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// modernc sqlite allows one writer; a single connection keeps
		// transactions serialized instead of failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := &Store{dialect: dialect, db: db}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a transaction scoped to one command or tick.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

// applyMigrations runs each embedded migration file at most once,
// recording applied names in schema_migrations.
func (s *Store) applyMigrations(ctx context.Context) error {
	root := path.Join("migrations", string(s.dialect))
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`); err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}

	for _, file := range files {
		var count int
		check := "SELECT COUNT(*) FROM schema_migrations WHERE name = " + s.bindAt(1)
		if err := s.db.QueryRowContext(ctx, check, file).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", file, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		record := fmt.Sprintf("INSERT INTO schema_migrations (name, applied_at) VALUES (%s, %s)",
			s.bindAt(1), s.bindAt(2))
		if _, err := tx.ExecContext(ctx, record, file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *Store) bindAt(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// Tx is one transactional scope over the game state. All repository
// methods live on Tx so no mutation can escape a transaction.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Commit finalizes the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback abandons the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// bind renders the placeholder for a 1-based argument position.
func (t *Tx) bind(pos int) string {
	if t.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// binds renders placeholders for positions 1..n joined by ", ".
func (t *Tx) binds(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = t.bind(i + 1)
	}
	return strings.Join(ph, ", ")
}

// insertID executes an INSERT and returns the generated id, using
// RETURNING on Postgres where LastInsertId is unavailable.
func (t *Tx) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if t.dialect == DialectPostgres {
		var id int64
		err := t.tx.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func toMillis(v time.Time) int64 {
	return v.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
