package cache

import (
	"context"
	"sync/atomic"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/observe"
)

// TieredStore serves from a local MemoryStore (L1) in front of a shared
// Backend (L2). Reads fall through to L2 and back-fill L1; writes go to both.
type TieredStore struct {
	l1   *MemoryStore
	l2   Backend
	opts storeOptions

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTieredStore creates a tiered store. The L1 store's policy and clock
// apply to both tiers.
func NewTieredStore(l1 *MemoryStore, l2 Backend, opts ...Option) (*TieredStore, error) {
	if l1 == nil || l2 == nil {
		return nil, ErrNilBackend
	}
	o := l1.opts
	for _, opt := range opts {
		opt(&o)
	}
	return &TieredStore{l1: l1, l2: l2, opts: o}, nil
}

// Get returns the entry for key from L1 or, failing that, L2.
func (s *TieredStore) Get(ctx context.Context, key string) (Entry, bool) {
	if entry, ok := s.l1.lookup(key); ok {
		s.hits.Add(1)
		return entry, true
	}

	entry, ok, err := s.l2.Load(ctx, key)
	if err != nil {
		s.opts.logger.Warn(ctx, "L2 cache read failed", observe.Field{Key: "error", Value: err})
	}
	if !ok || s.opts.policy.Classify(entry.Age(s.opts.now())) == Expired {
		s.misses.Add(1)
		return Entry{}, false
	}

	s.l1.put(entry)
	s.hits.Add(1)
	return entry, true
}

// Set writes value to both tiers with one timestamp. An L2 failure is
// returned after L1 has been updated.
func (s *TieredStore) Set(ctx context.Context, key string, value aggregate.Result) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	entry := Entry{Key: key, Value: value, StoredAt: s.opts.now()}
	s.l1.put(entry)
	return s.l2.Save(ctx, entry)
}

// Stats reports the L2 entry count (L1 when L2 is unavailable) and the
// tiered lookup counters.
func (s *TieredStore) Stats(ctx context.Context) Stats {
	n, err := s.l2.Count(ctx)
	if err != nil {
		s.opts.logger.Warn(ctx, "L2 cache count failed", observe.Field{Key: "error", Value: err})
		n = s.l1.Len()
	}
	return Stats{Entries: n, Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Policy returns the store's freshness policy.
func (s *TieredStore) Policy() Policy {
	return s.opts.policy
}

// Close stops the L1 janitor.
func (s *TieredStore) Close() error {
	return s.l1.Close()
}

var _ Store = (*TieredStore)(nil)
