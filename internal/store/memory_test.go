package store_test

import (
	"context"
	"testing"

	"github.com/voxscore/voxscore/internal/store"
)

func TestMemory_EmptyThenSaved(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	ctx := context.Background()

	if _, ok, err := m.Load(ctx); err != nil || ok {
		t.Fatalf("fresh store: Load = ok %v, err %v; want no score", ok, err)
	}

	if err := m.Save(ctx, 87); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, ok, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !ok || got != 87 {
		t.Errorf("Load = %d, ok %v; want 87, true", got, ok)
	}

	// Saving again overwrites the single slot.
	if err := m.Save(ctx, 42); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if got, _, _ := m.Load(ctx); got != 42 {
		t.Errorf("Load after overwrite = %d, want 42", got)
	}
}
