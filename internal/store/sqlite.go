package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the on-device [Store] backend.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the score database at path and ensures the
// schema exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %q: %w", path, err)
	}
	// SQLite only supports one writer at a time; a single connection avoids
	// SQLITE_BUSY if the status endpoint ever grows a reader.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS last_score (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			score INTEGER NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

// Load implements [Store].
func (s *SQLite) Load(ctx context.Context) (int, bool, error) {
	var score int
	err := s.db.QueryRowContext(ctx, "SELECT score FROM last_score WHERE id = 1").Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: load score: %w", err)
	}
	return score, true, nil
}

// Save implements [Store].
func (s *SQLite) Save(ctx context.Context, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO last_score (id, score, updated_at) VALUES (1, ?, datetime('now'))
		ON CONFLICT (id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
	`, score)
	if err != nil {
		return fmt.Errorf("store: save score: %w", err)
	}
	return nil
}

// Close implements [Store].
func (s *SQLite) Close() error {
	return s.db.Close()
}
