package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records provider and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one provider fetch with duration and error status.
	RecordFetch(ctx context.Context, meta ProviderMeta, duration time.Duration, err error)

	// RecordCacheLookup records one cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordRefresh records one background refresh.
	RecordRefresh(ctx context.Context, err error)
}

type metricsImpl struct {
	fetchTotal    metric.Int64Counter
	fetchErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
	refreshTotal  metric.Int64Counter
	refreshErrors metric.Int64Counter
}

// NewMetrics creates Metrics on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.fetchTotal, err = meter.Int64Counter(
		"provider.fetch.total",
		metric.WithDescription("Total number of provider fetches"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.fetchErrors, err = meter.Int64Counter(
		"provider.fetch.errors",
		metric.WithDescription("Provider fetches that failed or timed out"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.fetchDuration, err = meter.Float64Histogram(
		"provider.fetch.duration_ms",
		metric.WithDescription("Provider fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.cacheLookups, err = meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Search cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.refreshTotal, err = meter.Int64Counter(
		"cache.refresh.total",
		metric.WithDescription("Background cache refreshes"),
		metric.WithUnit("{refresh}"),
	); err != nil {
		return nil, err
	}

	if m.refreshErrors, err = meter.Int64Counter(
		"cache.refresh.errors",
		metric.WithDescription("Background cache refreshes that failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta ProviderMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("provider.key", meta.Key),
		attribute.String("provider.name", meta.Name),
	)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metricsImpl) RecordRefresh(ctx context.Context, err error) {
	m.refreshTotal.Add(ctx, 1)
	if err != nil {
		m.refreshErrors.Add(ctx, 1)
	}
}

// NoopMetrics returns Metrics backed by a no-op meter.
func NoopMetrics() Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}
