package store

import (
	"context"
	"sync"
)

// Memory is an in-process [Store]. Scores do not survive a restart; it backs
// the demo mode and tests.
type Memory struct {
	mu    sync.Mutex
	score int
	set   bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements [Store].
func (m *Memory) Load(_ context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score, m.set, nil
}

// Save implements [Store].
func (m *Memory) Save(_ context.Context, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.score = score
	m.set = true
	return nil
}

// Close implements [Store].
func (m *Memory) Close() error { return nil }
