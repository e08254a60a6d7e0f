package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/cache"
)

var refreshedAt = time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *cache.MemoryStore {
	t.Helper()
	s, err := cache.NewMemoryStore(cache.WithPolicy(cache.Policy{TTL: 2 * time.Hour, StaleAfter: time.Hour}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// blockingRunner counts runs and blocks each one until release is closed.
type blockingRunner struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (r *blockingRunner) Run(ctx context.Context, query string) (aggregate.Result, error) {
	r.calls.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
		return aggregate.Result{}, ctx.Err()
	}
	if r.err != nil {
		return aggregate.Result{}, r.err
	}
	return aggregate.Result{Query: query, Results: []aggregate.Outcome{}, TotalProducts: 7}, nil
}

func TestScheduler_TriggerStoresRefreshedResult(t *testing.T) {
	store := newStore(t)
	runner := &blockingRunner{release: make(chan struct{})}
	close(runner.release)

	s := NewScheduler(context.Background(), store, runner, WithClock(func() time.Time { return refreshedAt }))

	assert.True(t, s.Trigger("door"))
	s.Wait()

	entry, ok := store.Get(context.Background(), "door")
	require.True(t, ok)
	assert.Equal(t, 7, entry.Value.TotalProducts)
	assert.True(t, entry.Value.ServedFromCache)
	assert.Equal(t, refreshedAt, entry.Value.CachedAt)
	assert.False(t, s.InFlight("door"))
}

// TestScheduler_SingleFlight verifies concurrent triggers for one query start one refresh.
func TestScheduler_SingleFlight(t *testing.T) {
	store := newStore(t)
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(context.Background(), store, runner)

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Trigger("door") {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), started.Load())
	assert.True(t, s.InFlight("door"))

	close(runner.release)
	s.Wait()
	assert.Equal(t, int32(1), runner.calls.Load())

	// A later stale read may refresh again.
	assert.True(t, s.Trigger("door"))
	s.Wait()
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestScheduler_DistinctQueriesRefreshIndependently(t *testing.T) {
	store := newStore(t)
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(context.Background(), store, runner)

	assert.True(t, s.Trigger("door"))
	assert.True(t, s.Trigger("lock"))
	close(runner.release)
	s.Wait()

	assert.Equal(t, int32(2), runner.calls.Load())
}

// TestScheduler_FailureKeepsStaleEntry verifies a failed refresh leaves the cached value in place.
func TestScheduler_FailureKeepsStaleEntry(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	stale := aggregate.Result{Query: "door", Results: []aggregate.Outcome{}, TotalProducts: 1}
	require.NoError(t, store.Set(ctx, "door", stale))

	runner := &blockingRunner{release: make(chan struct{}), err: errors.New("all providers down")}
	close(runner.release)
	s := NewScheduler(ctx, store, runner)

	assert.True(t, s.Trigger("door"))
	s.Wait()

	entry, ok := store.Get(ctx, "door")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Value.TotalProducts)
	assert.False(t, entry.Value.ServedFromCache)
}

func TestScheduler_ClosedContextIgnoresTriggers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(ctx, newStore(t), runner)

	assert.False(t, s.Trigger("door"))
	s.Wait()
	assert.Equal(t, int32(0), runner.calls.Load())
}

func TestScheduler_TimeoutBoundsRefresh(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(context.Background(), newStore(t), runner, WithTimeout(10*time.Millisecond))

	assert.True(t, s.Trigger("door"))

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh was not bounded by its timeout")
	}
}

// TestScheduler_RefreshJoinsTriggered verifies a synchronous refresh shares a running one.
func TestScheduler_RefreshJoinsTriggered(t *testing.T) {
	store := newStore(t)
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(context.Background(), store, runner)

	require.True(t, s.Trigger("door"))

	resCh := make(chan aggregate.Result, 1)
	go func() {
		res, err := s.Refresh(context.Background(), "door")
		assert.NoError(t, err)
		resCh <- res
	}()

	time.Sleep(20 * time.Millisecond)
	close(runner.release)
	s.Wait()

	res := <-resCh
	assert.Equal(t, 7, res.TotalProducts)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestRunnerFunc(t *testing.T) {
	r := RunnerFunc(func(ctx context.Context, q string) (aggregate.Result, error) {
		return aggregate.Result{Query: q}, nil
	})
	res, err := r.Run(context.Background(), "door")
	require.NoError(t, err)
	assert.Equal(t, "door", res.Query)
}
