package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/refresh"
	"github.com/jonwraymond/productsearch/stream"
)

// Trigger starts a background refresh for a query.
type Trigger interface {
	Trigger(query string) bool
}

// Service answers searches from the cache, the providers, or a stream.
type Service struct {
	store     cache.Store
	runner    refresh.Runner
	refresher Trigger
	streams   *stream.Dispatcher

	now     func() time.Time
	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithDispatcher enables Stream.
func WithDispatcher(d *stream.Dispatcher) Option {
	return func(s *Service) {
		s.streams = d
	}
}

// WithClock sets the time source for cache stamps and freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder for cache lookups.
func WithMetrics(m observe.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a Service.
func NewService(store cache.Store, runner refresh.Runner, refresher Trigger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		runner:    runner,
		refresher: refresher,
		now:       time.Now,
		logger:    observe.NopLogger(),
		metrics:   observe.NoopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a query. The query is used verbatim as the cache key, so
// only emptiness and key constraints are checked.
func Validate(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if err := cache.ValidateKey(query); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

// Search returns the aggregate for query.
func (s *Service) Search(ctx context.Context, query string) (aggregate.Result, error) {
	if err := Validate(query); err != nil {
		return aggregate.Result{}, err
	}

	entry, hit := s.store.Get(ctx, query)
	s.metrics.RecordCacheLookup(ctx, hit)

	if hit {
		freshness := s.store.Policy().Classify(entry.Age(s.now()))
		if freshness == cache.Stale {
			started := s.refresher.Trigger(query)
			s.logger.Info(ctx, "serving stale result",
				observe.Field{Key: "query", Value: query},
				observe.Field{Key: "refresh_started", Value: started},
			)
		} else {
			s.logger.Debug(ctx, "serving cached result", observe.Field{Key: "query", Value: query})
		}
		return entry.Value, nil
	}

	res, err := s.runner.Run(ctx, query)
	if err != nil {
		return aggregate.Result{}, &InternalError{Op: "aggregate", Err: err}
	}
	// Outcomes cut short by the caller leaving are not worth caching.
	if err := ctx.Err(); err != nil {
		return aggregate.Result{}, err
	}
	res.ServedFromCache = false
	res.CachedAt = s.now()

	if err := s.store.Set(ctx, query, res); err != nil {
		return aggregate.Result{}, &InternalError{Op: "cache write", Err: err}
	}
	return res, nil
}

// CacheInfo returns cache statistics.
func (s *Service) CacheInfo(ctx context.Context) cache.Stats {
	return s.store.Stats(ctx)
}

// Stream opens a streaming session for query.
func (s *Service) Stream(ctx context.Context, query string) (*stream.Session, error) {
	if err := Validate(query); err != nil {
		return nil, err
	}
	if s.streams == nil {
		return nil, ErrStreamingDisabled
	}
	return s.streams.Open(ctx, query), nil
}
