package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxscore/voxscore/internal/store"
	"github.com/voxscore/voxscore/internal/store/mock"
)

func TestFallback_PrimaryHealthy(t *testing.T) {
	t.Parallel()

	primary := &mock.Store{LoadResult: 81, LoadOK: true}
	secondary := &mock.Store{}
	f := store.NewFallback(primary, secondary, nil)
	ctx := context.Background()

	got, ok, err := f.Load(ctx)
	if err != nil || !ok || got != 81 {
		t.Fatalf("Load = %d, %v, %v; want 81, true, nil", got, ok, err)
	}
	if secondary.CallCountLoad != 0 {
		t.Errorf("fallback consulted %d times despite healthy primary", secondary.CallCountLoad)
	}

	if err := f.Save(ctx, 90); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if len(secondary.SaveCalls) != 0 {
		t.Errorf("fallback written despite healthy primary: %v", secondary.SaveCalls)
	}
}

func TestFallback_PrimaryDown(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	primary := &mock.Store{LoadError: down, SaveError: down}
	secondary := &mock.Store{LoadResult: 64, LoadOK: true}
	f := store.NewFallback(primary, secondary, nil)
	ctx := context.Background()

	got, ok, err := f.Load(ctx)
	if err != nil || !ok || got != 64 {
		t.Fatalf("Load = %d, %v, %v; want fallback's 64, true, nil", got, ok, err)
	}

	if err := f.Save(ctx, 72); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if len(secondary.SaveCalls) != 1 || secondary.SaveCalls[0] != 72 {
		t.Errorf("fallback SaveCalls = %v, want [72]", secondary.SaveCalls)
	}
}

func TestFallback_BothDown(t *testing.T) {
	t.Parallel()

	errA := errors.New("primary down")
	errB := errors.New("fallback down")
	f := store.NewFallback(
		&mock.Store{LoadError: errA, SaveError: errA},
		&mock.Store{LoadError: errB, SaveError: errB},
		nil,
	)
	ctx := context.Background()

	if _, _, err := f.Load(ctx); !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Load error = %v, want both causes joined", err)
	}
	if err := f.Save(ctx, 50); !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Save error = %v, want both causes joined", err)
	}
}

func TestFallback_CloseClosesBoth(t *testing.T) {
	t.Parallel()

	primary := &mock.Store{}
	secondary := &mock.Store{}
	f := store.NewFallback(primary, secondary, nil)

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if primary.CallCountClose != 1 || secondary.CallCountClose != 1 {
		t.Errorf("Close counts = %d, %d; want 1, 1", primary.CallCountClose, secondary.CallCountClose)
	}
}
