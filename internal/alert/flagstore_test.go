package alert

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *FlagStore {
	t.Helper()
	store, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"), nil)
	if err != nil {
		t.Fatalf("open flag store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFlagStoreMarkLookupClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	firedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	if _, ok, err := store.Lookup(ctx, 5); err != nil || ok {
		t.Fatalf("fresh store should have no flag, ok=%v err=%v", ok, err)
	}

	if err := store.Mark(ctx, 5, firedAt); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	flag, ok, err := store.Lookup(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("Lookup after Mark: ok=%v err=%v", ok, err)
	}
	if !flag.FiredAt.Equal(firedAt) {
		t.Errorf("FiredAt = %v, want %v", flag.FiredAt, firedAt)
	}

	if err := store.Clear(ctx, 5); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := store.Lookup(ctx, 5); ok {
		t.Error("flag should be gone after Clear")
	}
	// Clearing again is not an error.
	if err := store.Clear(ctx, 5); err != nil {
		t.Errorf("double Clear should be a no-op: %v", err)
	}
}

func TestFlagStoreMarkReplacesTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	second := first.Add(15 * time.Minute)

	if err := store.Mark(ctx, 7, first); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := store.Mark(ctx, 7, second); err != nil {
		t.Fatalf("re-Mark failed: %v", err)
	}
	flag, ok, _ := store.Lookup(ctx, 7)
	if !ok || !flag.FiredAt.Equal(second) {
		t.Errorf("re-Mark should replace the timestamp, got %v", flag.FiredAt)
	}
}

func TestFlagStoreSweepAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for id := int64(1); id <= 3; id++ {
		if err := store.Mark(ctx, id, now); err != nil {
			t.Fatalf("Mark failed: %v", err)
		}
	}
	swept, err := store.SweepAll(ctx)
	if err != nil {
		t.Fatalf("SweepAll failed: %v", err)
	}
	if swept != 3 {
		t.Errorf("swept %d flags, want 3", swept)
	}
	flags, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("flags should be empty after sweep, got %d", len(flags))
	}
}

func TestFlagStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.db")
	ctx := context.Background()
	firedAt := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)

	store, err := OpenFlagStore(path, nil)
	if err != nil {
		t.Fatalf("open flag store: %v", err)
	}
	if err := store.Mark(ctx, 9, firedAt); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenFlagStore(path, nil)
	if err != nil {
		t.Fatalf("reopen flag store: %v", err)
	}
	defer reopened.Close()
	flag, ok, err := reopened.Lookup(ctx, 9)
	if err != nil || !ok {
		t.Fatalf("flag should survive reopen, ok=%v err=%v", ok, err)
	}
	if !flag.FiredAt.Equal(firedAt) {
		t.Errorf("FiredAt = %v, want %v", flag.FiredAt, firedAt)
	}
}
