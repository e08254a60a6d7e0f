package orchestrator

import (
	"time"

	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/resilience"
)

// DefaultTimeout is the per-provider limit.
const DefaultTimeout = resilience.DefaultTimeout

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets the per-provider timeout. Non-positive values use DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d <= 0 {
			d = DefaultTimeout
		}
		o.timeout = d
	}
}

// WithMaxConcurrent caps in-flight provider calls across all runs sharing
// this Orchestrator. Calls over the cap queue until a slot frees; the
// provider timeout starts once the call holds a slot. Zero means unlimited.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) {
		o.maxConcurrent = n
	}
}

// WithMiddleware sets the telemetry middleware wrapped around each fetch.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *Orchestrator) {
		if mw != nil {
			o.mw = mw
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}
