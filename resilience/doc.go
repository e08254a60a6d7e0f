// Package resilience provides the isolation primitives used around provider
// calls.
//
// Each provider is attempted exactly once per search, so the package carries
// no retry or circuit-breaking logic. It offers two patterns:
//
//   - Timeout: races an operation against a deadline. The operation's context
//     is cancelled when the deadline fires; operations that ignore
//     cancellation are abandoned and their late result is discarded.
//
//   - Bulkhead: limits the number of concurrent operations, either rejecting
//     or queueing callers when the limit is reached.
//
// # Usage
//
//	executor := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
//	        MaxConcurrent: 4,
//	        MaxWait:       -1, // queue until ctx is done
//	    })),
//	    resilience.WithTimeout(10*time.Minute),
//	)
//
//	data, err := resilience.Call(ctx, executor, func(ctx context.Context) (catalog.Data, error) {
//	    return provider.Fetch(ctx, query)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // the provider did not answer in time
//	}
package resilience
