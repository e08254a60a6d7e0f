package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/observe"
)

// Runner computes a fresh aggregate for a query.
type Runner interface {
	Run(ctx context.Context, query string) (aggregate.Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, query string) (aggregate.Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, query string) (aggregate.Result, error) {
	return f(ctx, query)
}

// Scheduler runs single-flight background refreshes.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: refreshes run under the context given to NewScheduler, not the
// triggering request's; cancelling it stops new refreshes and cancels running ones.
type Scheduler struct {
	ctx     context.Context
	store   cache.Store
	runner  Runner
	group   singleflight.Group
	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]struct{}

	now     func() time.Time
	timeout time.Duration
	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for refresh outcomes.
func WithLogger(l observe.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock sets the time source used to stamp refreshed entries.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTimeout bounds each refresh. Zero leaves refreshes bounded only by the
// runner's own limits.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// NewScheduler creates a scheduler writing refreshed results to store.
func NewScheduler(ctx context.Context, store cache.Store, runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:     ctx,
		store:   store,
		runner:  runner,
		running: make(map[string]struct{}),
		now:     time.Now,
		logger:  observe.NopLogger(),
		metrics: observe.NoopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger starts a background refresh for query and returns immediately.
// It returns false when a refresh for query is already running or the
// scheduler's context has ended.
func (s *Scheduler) Trigger(query string) bool {
	if s.ctx.Err() != nil {
		return false
	}

	s.mu.Lock()
	if _, busy := s.running[query]; busy {
		s.mu.Unlock()
		return false
	}
	s.running[query] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	// Registered before Trigger returns so a concurrent Refresh joins it.
	ch := s.group.DoChan(query, func() (any, error) {
		return s.refresh(query)
	})

	go func() {
		defer s.wg.Done()
		<-ch
		s.mu.Lock()
		delete(s.running, query)
		s.mu.Unlock()
	}()
	return true
}

// Refresh recomputes query synchronously, joining a running refresh for
// the same query if there is one.
func (s *Scheduler) Refresh(ctx context.Context, query string) (aggregate.Result, error) {
	ch := s.group.DoChan(query, func() (any, error) {
		return s.refresh(query)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return aggregate.Result{}, res.Err
		}
		return res.Val.(aggregate.Result), nil
	case <-ctx.Done():
		return aggregate.Result{}, ctx.Err()
	}
}

// InFlight reports whether a triggered refresh for query is running.
func (s *Scheduler) InFlight(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[query]
	return ok
}

// Wait blocks until every triggered refresh has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) refresh(query string) (aggregate.Result, error) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.run(ctx, query)
	s.metrics.RecordRefresh(ctx, err)

	fields := []observe.Field{
		{Key: "query", Value: query},
		{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	}
	if err != nil {
		s.logger.Warn(ctx, "background refresh failed", append(fields, observe.Field{Key: "error", Value: err})...)
		return aggregate.Result{}, err
	}
	s.logger.Info(ctx, "background refresh completed",
		append(fields, observe.Field{Key: "total_products", Value: res.TotalProducts})...)
	return res, nil
}

func (s *Scheduler) run(ctx context.Context, query string) (aggregate.Result, error) {
	res, err := s.runner.Run(ctx, query)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("refresh: run %q: %w", query, err)
	}

	res.ServedFromCache = true
	res.CachedAt = s.now()

	if err := s.store.Set(ctx, query, res); err != nil {
		return aggregate.Result{}, fmt.Errorf("refresh: store %q: %w", query, err)
	}
	return res, nil
}
