// Package observe provides observability primitives for provider fetches and
// the search cache.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The orchestrator wraps each provider call with
// Middleware; the cache layer reports lookups and refreshes through Metrics.
package observe
