package store

import (
	"context"
	"errors"
	"log/slog"
)

// Fallback chains two stores: reads and writes go to the primary, and on
// failure the same operation is retried against the fallback. A venue machine
// pointed at a central Postgres keeps scoring against its local SQLite file
// when the network drops.
type Fallback struct {
	primary  Store
	fallback Store
	log      *slog.Logger
}

var _ Store = (*Fallback)(nil)

// NewFallback wires primary and fallback stores. logger may be nil.
func NewFallback(primary, fallback Store, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, fallback: fallback, log: logger}
}

// Load implements [Store]. A primary failure is logged, not returned, as
// long as the fallback can answer.
func (f *Fallback) Load(ctx context.Context) (int, bool, error) {
	score, ok, err := f.primary.Load(ctx)
	if err == nil {
		return score, ok, nil
	}
	f.log.Warn("primary store load failed, trying fallback", "error", err)
	score, ok, ferr := f.fallback.Load(ctx)
	if ferr != nil {
		return 0, false, errors.Join(err, ferr)
	}
	return score, ok, nil
}

// Save implements [Store]. The score also lands in the fallback whenever the
// primary write fails, so the next Load still sees it.
func (f *Fallback) Save(ctx context.Context, score int) error {
	err := f.primary.Save(ctx, score)
	if err == nil {
		return nil
	}
	f.log.Warn("primary store save failed, trying fallback", "error", err)
	if ferr := f.fallback.Save(ctx, score); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

// Close implements [Store]. Both stores are closed; errors are joined.
func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}
