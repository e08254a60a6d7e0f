package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/catalog"
	"github.com/jonwraymond/productsearch/config"
	"github.com/jonwraymond/productsearch/health"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/orchestrator"
	"github.com/jonwraymond/productsearch/refresh"
	"github.com/jonwraymond/productsearch/scraper"
	"github.com/jonwraymond/productsearch/search"
	"github.com/jonwraymond/productsearch/stream"
)

// app is the assembled service graph.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	logger   observe.Logger
	store    cache.Store
	redis    redis.UniversalClient
	browser  *scraper.Browser
	registry *catalog.Registry
	orch     *orchestrator.Orchestrator
	refresh  *refresh.Scheduler
	service  *search.Service
	health   *health.Aggregator

	closers []func() error
}

// newApp builds the service graph from cfg. Background refreshes run until
// ctx ends. Close releases everything newApp opened.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	a.observer, err = observe.NewObserver(ctx, cfg.Observe(version))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.logger = a.observer.Logger()

	mw, err := observe.MiddlewareFromObserver(a.observer)
	if err != nil {
		return nil, fmt.Errorf("telemetry middleware: %w", err)
	}
	metrics, err := observe.NewMetrics(a.observer.Meter())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	a.browser = scraper.NewBrowser(scraper.BrowserConfig{
		RemoteURL:  cfg.Scraper.RemoteURL,
		ExecPath:   cfg.Scraper.ExecPath,
		Headless:   cfg.Scraper.Headless,
		NoSandbox:  cfg.Scraper.NoSandbox,
		UserAgent:  cfg.Scraper.UserAgent,
		NavTimeout: cfg.Scraper.NavTimeout,
		MaxTabs:    cfg.Scraper.MaxBrowsers,
	}, a.logger)
	a.closers = append(a.closers, a.browser.Close)

	all, err := catalog.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := a.browser.Register(all, scraper.DefaultSites()...); err != nil {
		return nil, fmt.Errorf("register sites: %w", err)
	}

	a.registry, err = subsetRegistry(all, cfg.Search.Providers)
	if err != nil {
		return nil, fmt.Errorf("search providers: %w", err)
	}
	streamed, err := all.Subset(cfg.Stream.Providers...)
	if err != nil {
		return nil, fmt.Errorf("stream providers: %w", err)
	}

	a.orch, err = orchestrator.New(a.registry,
		orchestrator.WithTimeout(cfg.Search.ProviderTimeout),
		orchestrator.WithMaxConcurrent(cfg.Search.MaxConcurrent),
		orchestrator.WithMiddleware(mw),
		orchestrator.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	a.refresh = refresh.NewScheduler(ctx, a.store, a.orch,
		refresh.WithTimeout(cfg.Search.RefreshTimeout),
		refresh.WithLogger(a.logger),
		refresh.WithMetrics(metrics),
	)

	dispatcher := stream.NewDispatcher(a.orch, streamed,
		stream.WithCancelOnClose(cfg.Stream.CancelOnClose),
		stream.WithLogger(a.logger),
	)

	a.service = search.NewService(a.store, a.orch, a.refresh,
		search.WithDispatcher(dispatcher),
		search.WithLogger(a.logger),
		search.WithMetrics(metrics),
	)

	a.health = health.NewAggregator(health.WithLogger(a.logger))
	a.health.Register(health.NewStoreChecker(a.store), health.NewRegistryChecker(a.registry))
	if a.redis != nil {
		a.health.Register(health.NewRedisChecker(a.redis))
	}

	a.logger.Info(ctx, "service assembled",
		observe.Field{Key: "providers", Value: a.registry.Keys()},
		observe.Field{Key: "stream_providers", Value: len(streamed)},
		observe.Field{Key: "cache_backend", Value: cfg.Cache.Backend},
	)
	return a, nil
}

func (a *app) openStore() error {
	cfg := a.cfg
	opts := []cache.Option{
		cache.WithPolicy(cfg.Cache.Policy()),
		cache.WithLogger(a.logger),
	}

	if cfg.Cache.Backend == config.BackendMemory {
		mem, err := cache.NewMemoryStore(opts...)
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		a.store = mem
		a.closers = append(a.closers, mem.Close)
		return nil
	}

	a.redis = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, a.redis.Close)

	rs, err := cache.NewRedisStore(a.redis, append(opts, cache.WithKeyer(cache.NewHashKeyer(cfg.Cache.KeyPrefix)))...)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if cfg.Cache.Backend == config.BackendRedis {
		a.store = rs
		return nil
	}

	l1, err := cache.NewMemoryStore(opts...)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	a.closers = append(a.closers, l1.Close)
	tiered, err := cache.NewTieredStore(l1, rs)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	a.store = tiered
	return nil
}

// subsetRegistry narrows reg to keys, keeping their order. No keys keeps reg.
func subsetRegistry(reg *catalog.Registry, keys []string) (*catalog.Registry, error) {
	if len(keys) == 0 {
		return reg, nil
	}
	providers, err := reg.Subset(keys...)
	if err != nil {
		return nil, err
	}
	return catalog.NewRegistry(providers...)
}

// Close waits for running refreshes, then releases resources in reverse
// order of acquisition.
func (a *app) Close(ctx context.Context) error {
	if a.refresh != nil {
		a.refresh.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if a.observer != nil {
		if err := a.observer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
