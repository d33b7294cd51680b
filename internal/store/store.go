package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// SQLite is the primary backend.
type SQLite struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath, runs migrations and
// seeds the default categories.
func New(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*SQLite, error) {
	return New(":memory:")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *SQLite) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS categories (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS work_logs (
		id          TEXT PRIMARY KEY,
		category_id INTEGER REFERENCES categories(id),
		task        TEXT NOT NULL,
		mode        TEXT NOT NULL,
		duration    INTEGER NOT NULL,
		completed   INTEGER NOT NULL,
		timestamp   TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_logs_category  ON work_logs(category_id);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON work_logs(timestamp);

	CREATE TABLE IF NOT EXISTS pomodoro_plans (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		steps       TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// seedCategories inserts the defaults if absent. Safe to run on every open.
func (s *SQLite) seedCategories(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, name := range DefaultCategories {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (name, created_at) VALUES (?, ?)`, name, now,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}
	return nil
}

// withinTx runs fn inside a transaction, rolling back on error or panic.
func (s *SQLite) withinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DefaultDBPath returns ~/.config/tomato/tomato.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tomato", "tomato.db"), nil
}

// DefaultKVPath returns ~/.config/tomato/fallback.json
func DefaultKVPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tomato", "fallback.json"), nil
}
