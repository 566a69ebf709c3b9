// Package store persists the single last-score value that score smoothing
// reads at session start and writes at session stop.
//
// The store is a single-slot key-value surface: one integer in [0, 100],
// global rather than keyed per song. Backends: [Memory] for tests and demo
// runs, [SQLite] for on-device installs, and [Postgres] for venue installs
// sharing a central database.
package store

import "context"

// Store is the persisted-score surface. The discipline is read-at-start /
// write-at-stop within one session; concurrent writers are out of scope.
type Store interface {
	// Load returns the persisted score. ok is false when no score has ever
	// been saved.
	Load(ctx context.Context) (score int, ok bool, err error)

	// Save replaces the persisted score.
	Save(ctx context.Context, score int) error

	// Close releases backend resources.
	Close() error
}
