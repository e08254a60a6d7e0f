package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestMemoryStore(t *testing.T, clock *fakeClock) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(WithPolicy(testPolicy()), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore_GetSet(t *testing.T) {
	clock := newFakeClock()
	s := newTestMemoryStore(t, clock)
	ctx := context.Background()

	if _, ok := s.Get(ctx, "door"); ok {
		t.Error("Get on empty store should miss")
	}

	if err := s.Set(ctx, "door", result("door", 3)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entry, ok := s.Get(ctx, "door")
	if !ok {
		t.Fatal("Get after Set should hit")
	}
	if entry.Value.TotalProducts != 3 {
		t.Errorf("TotalProducts = %d, want 3", entry.Value.TotalProducts)
	}
	if !entry.StoredAt.Equal(clock.Now()) {
		t.Errorf("StoredAt = %v, want %v", entry.StoredAt, clock.Now())
	}
	if entry.Key != "door" {
		t.Errorf("Key = %q, want door", entry.Key)
	}
}

func TestMemoryStore_InvalidKey(t *testing.T) {
	s := newTestMemoryStore(t, newFakeClock())

	if err := s.Set(context.Background(), "a\nb", result("a\nb", 0)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set() error = %v, want ErrInvalidKey", err)
	}
}

// TestMemoryStore_ExpiryBoundary verifies entries are served until TTL and never at TTL.
func TestMemoryStore_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	s := newTestMemoryStore(t, clock)
	ctx := context.Background()

	_ = s.Set(ctx, "door", result("door", 1))

	clock.Advance(time.Hour)
	entry, ok := s.Get(ctx, "door")
	if !ok {
		t.Fatal("stale entry should still be served")
	}
	if got := s.Policy().Classify(entry.Age(clock.Now())); got != Stale {
		t.Errorf("Classify() = %v, want stale", got)
	}

	clock.Advance(time.Hour - time.Second)
	if _, ok := s.Get(ctx, "door"); !ok {
		t.Error("entry just below TTL should be served")
	}

	clock.Advance(time.Second)
	if _, ok := s.Get(ctx, "door"); ok {
		t.Error("entry at TTL must not be served")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry removed on read", s.Len())
	}
}

// TestMemoryStore_StatsCountOncePerGet verifies each Get counts one hit or miss.
func TestMemoryStore_StatsCountOncePerGet(t *testing.T) {
	s := newTestMemoryStore(t, newFakeClock())
	ctx := context.Background()

	s.Get(ctx, "a")
	_ = s.Set(ctx, "a", result("a", 0))
	s.Get(ctx, "a")
	s.Get(ctx, "a")
	s.Get(ctx, "b")

	stats := s.Stats(ctx)
	if stats.Hits != 2 || stats.Misses != 2 || stats.Entries != 1 {
		t.Errorf("Stats() = %+v, want {Entries:1 Hits:2 Misses:2}", stats)
	}
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	clock := newFakeClock()
	s := newTestMemoryStore(t, clock)
	ctx := context.Background()

	_ = s.Set(ctx, "door", result("door", 1))
	clock.Advance(time.Minute)
	_ = s.Set(ctx, "door", result("door", 2))

	entry, _ := s.Get(ctx, "door")
	if entry.Value.TotalProducts != 2 {
		t.Errorf("TotalProducts = %d, want 2", entry.Value.TotalProducts)
	}
	if !entry.StoredAt.Equal(clock.Now()) {
		t.Error("StoredAt was not replaced with the second write")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	s := newTestMemoryStore(t, clock)
	ctx := context.Background()

	_ = s.Set(ctx, "old", result("old", 0))
	clock.Advance(90 * time.Minute)
	_ = s.Set(ctx, "new", result("new", 0))
	clock.Advance(45 * time.Minute)

	if removed := s.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStore_JanitorSweeps(t *testing.T) {
	clock := newFakeClock()
	s, err := NewMemoryStore(
		WithPolicy(Policy{TTL: 2 * time.Hour, StaleAfter: time.Hour, CheckPeriod: 5 * time.Millisecond}),
		WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer s.Close()

	_ = s.Set(context.Background(), "door", result("door", 0))
	clock.Advance(3 * time.Hour)

	deadline := time.Now().Add(time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not sweep expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	s, err := NewMemoryStore(WithPolicy(DefaultPolicy()))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestMemoryStore_InvalidPolicy(t *testing.T) {
	_, err := NewMemoryStore(WithPolicy(Policy{TTL: time.Minute, StaleAfter: time.Hour}))
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("NewMemoryStore() error = %v, want ErrInvalidPolicy", err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := newTestMemoryStore(t, newFakeClock())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = s.Set(ctx, "door", result("door", n))
		}(i)
		go func() {
			defer wg.Done()
			s.Get(ctx, "door")
		}()
	}
	wg.Wait()

	stats := s.Stats(ctx)
	if stats.Hits+stats.Misses != 50 {
		t.Errorf("Hits+Misses = %d, want 50", stats.Hits+stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}
