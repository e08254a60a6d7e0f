package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultCapacity = 10

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of slots. Default 10.
	MaxConcurrent int

	// MaxWait bounds the wait for a slot. Zero fails at once when every slot
	// is held; a negative value waits until the caller's context ends.
	MaxWait time.Duration
}

// Bulkhead caps how many operations hold a slot at once. Provider calls and
// browser tabs are both gated by one.
type Bulkhead struct {
	slots   chan struct{}
	maxWait time.Duration

	inUse    atomic.Int64
	waiting  atomic.Int64
	peak     atomic.Int64
	rejected atomic.Int64
}

// BulkheadStats is a point-in-time view of a Bulkhead.
type BulkheadStats struct {
	Capacity int
	InUse    int
	Waiting  int
	Peak     int
	Rejected int64
}

// NewBulkhead creates a Bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	n := config.MaxConcurrent
	if n <= 0 {
		n = defaultCapacity
	}
	return &Bulkhead{
		slots:   make(chan struct{}, n),
		maxWait: config.MaxWait,
	}
}

// Acquire takes a slot. It returns ErrBulkheadFull when MaxWait passes first
// and ctx.Err() when ctx ends first. A nil error must be paired with Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.tryTake() {
		return nil
	}
	if b.maxWait == 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	b.waiting.Add(1)
	defer b.waiting.Add(-1)

	var expired <-chan time.Time
	if b.maxWait > 0 {
		timer := time.NewTimer(b.maxWait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case b.slots <- struct{}{}:
		b.taken()
		return nil
	case <-expired:
		b.rejected.Add(1)
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) tryTake() bool {
	select {
	case b.slots <- struct{}{}:
		b.taken()
		return true
	default:
		return false
	}
}

func (b *Bulkhead) taken() {
	n := b.inUse.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

// Release returns a slot taken by Acquire. Extra calls are ignored.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.inUse.Add(-1)
	default:
	}
}

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// Stats reports current usage.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		Capacity: cap(b.slots),
		InUse:    int(b.inUse.Load()),
		Waiting:  int(b.waiting.Load()),
		Peak:     int(b.peak.Load()),
		Rejected: b.rejected.Load(),
	}
}
