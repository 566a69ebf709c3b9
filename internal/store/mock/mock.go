// Package mock provides an in-memory mock implementation of [store.Store]
// for use in unit tests. It records every call so tests can assert on the
// read-at-start / write-at-stop discipline.
package mock

import (
	"context"
	"sync"

	"github.com/voxscore/voxscore/internal/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a mock score store.
// Set the exported Result fields before use; inspect the Call* fields after.
type Store struct {
	mu sync.Mutex

	// LoadResult and LoadOK are returned by [Store.Load] when LoadError is nil.
	LoadResult int
	LoadOK     bool

	// LoadError is returned by [Store.Load].
	LoadError error

	// SaveError is returned by [Store.Save].
	SaveError error

	// CallCountLoad records how many times Load was called.
	CallCountLoad int

	// SaveCalls records the score argument of every Save invocation.
	SaveCalls []int

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Load implements [store.Store].
func (s *Store) Load(_ context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountLoad++
	if s.LoadError != nil {
		return 0, false, s.LoadError
	}
	return s.LoadResult, s.LoadOK, nil
}

// Save implements [store.Store].
func (s *Store) Save(_ context.Context, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls = append(s.SaveCalls, score)
	return s.SaveError
}

// Close implements [store.Store].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	return nil
}
