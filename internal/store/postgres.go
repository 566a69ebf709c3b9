package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the venue-install [Store] backend: several karaoke machines
// can share one central database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database at dsn, verifies the connection, and
// ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS last_score (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			score INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Load implements [Store].
func (p *Postgres) Load(ctx context.Context) (int, bool, error) {
	var score int
	err := p.pool.QueryRow(ctx, "SELECT score FROM last_score WHERE id = 1").Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: load score: %w", err)
	}
	return score, true, nil
}

// Save implements [Store].
func (p *Postgres) Save(ctx context.Context, score int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO last_score (id, score, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
	`, score)
	if err != nil {
		return fmt.Errorf("store: save score: %w", err)
	}
	return nil
}

// Close implements [Store].
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
