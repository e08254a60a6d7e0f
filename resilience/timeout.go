package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is the per-operation limit applied when none is configured.
const DefaultTimeout = 600 * time.Second

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 600 seconds
	Timeout time.Duration
}

// Timeout wraps operations with a timeout.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a timeout.
//
// The operation receives a context that is cancelled when the limit fires or
// when ctx ends. Execute returns as soon as either happens, without waiting
// for the operation to notice. A fired limit yields a *TimeoutError; an ended
// parent context yields the parent's error.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	// Buffered so an abandoned operation can still deliver and exit.
	done := make(chan error, 1)

	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{After: t.config.Timeout}
		}
		return opCtx.Err()
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
