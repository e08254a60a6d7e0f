package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/catalog"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/resilience"
)

// Orchestrator runs queries across a provider registry.
//
// Contract:
// - Concurrency: stateless between runs; safe for concurrent Run calls,
// including for the same query.
// - Errors: provider failures never surface as errors. Run errors only on
// an internal assembly fault.
type Orchestrator struct {
	registry *catalog.Registry
	executor *resilience.Executor

	timeout       time.Duration
	maxConcurrent int
	mw            *observe.Middleware
	logger        observe.Logger
	now           func() time.Time
}

// New creates an Orchestrator over registry.
func New(registry *catalog.Registry, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	o := &Orchestrator{
		registry: registry,
		timeout:  DefaultTimeout,
		mw:       observe.NopMiddleware(),
		logger:   observe.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	execOpts := []resilience.ExecutorOption{resilience.WithTimeout(o.timeout)}
	if o.maxConcurrent > 0 {
		execOpts = append(execOpts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: o.maxConcurrent,
			MaxWait:       -1,
		})))
	}
	o.executor = resilience.NewExecutor(execOpts...)

	return o, nil
}

// Registry returns the provider registry.
func (o *Orchestrator) Registry() *catalog.Registry {
	return o.registry
}

// Timeout returns the per-provider timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}

// Run queries every registered provider and assembles the outcomes.
func (o *Orchestrator) Run(ctx context.Context, query string) (aggregate.Result, error) {
	return o.RunProviders(ctx, query, o.registry.Providers())
}

// RunProviders queries the given providers and assembles the outcomes in
// the order given.
func (o *Orchestrator) RunProviders(ctx context.Context, query string, providers []catalog.Provider) (aggregate.Result, error) {
	start := time.Now()
	outcomes := make([]aggregate.Outcome, len(providers))
	names := make([]string, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		names[i] = p.Name()
		wg.Add(1)
		go func(i int, p catalog.Provider) {
			defer wg.Done()
			outcomes[i] = o.Fetch(ctx, p, query)
		}(i, p)
	}
	wg.Wait()

	res, err := aggregate.Assemble(query, names, outcomes, o.now())
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("orchestrator: %w", err)
	}

	o.logger.Info(ctx, "search completed",
		observe.Field{Key: "query", Value: query},
		observe.Field{Key: "providers", Value: len(providers)},
		observe.Field{Key: "failed", Value: res.Failed()},
		observe.Field{Key: "total_products", Value: res.TotalProducts},
		observe.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	)
	return res, nil
}

// Fetch runs one provider under the per-provider timeout and returns its
// settled outcome. It never returns an error: failures, panics and
// timeouts become failure outcomes.
func (o *Orchestrator) Fetch(ctx context.Context, p catalog.Provider, query string) aggregate.Outcome {
	meta := observe.ProviderMeta{Key: p.Key(), Name: p.Name()}

	fetch := o.mw.Wrap(func(ctx context.Context, _ observe.ProviderMeta, query string) (any, error) {
		return resilience.Call(ctx, o.executor, func(ctx context.Context) (catalog.Data, error) {
			return safeFetch(ctx, p, query)
		})
	})

	v, err := fetch(ctx, meta, query)
	if err != nil {
		return aggregate.Failure(p.Name(), err.Error())
	}
	return aggregate.Success(p.Name(), v.(catalog.Data))
}

func safeFetch(ctx context.Context, p catalog.Provider, query string) (data catalog.Data, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return p.Fetch(ctx, query)
}
