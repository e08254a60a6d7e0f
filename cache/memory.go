package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry

	opts   storeOptions
	hits   atomic.Int64
	misses atomic.Int64

	stop      chan struct{}
	stopOnce  sync.Once
	sweepDone chan struct{}
}

// NewMemoryStore creates a memory store. When the policy's CheckPeriod is
// positive a janitor goroutine sweeps expired entries until Close is called.
func NewMemoryStore(opts ...Option) (*MemoryStore, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	s := &MemoryStore{
		entries:   make(map[string]Entry),
		opts:      o,
		stop:      make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	if o.policy.CheckPeriod > 0 {
		go s.janitor(o.policy.CheckPeriod)
	} else {
		close(s.sweepDone)
	}
	return s, nil
}

// Get returns the entry for key if present and not expired.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool) {
	entry, ok := s.lookup(key)
	if !ok {
		s.misses.Add(1)
		return Entry{}, false
	}
	s.hits.Add(1)
	return entry, true
}

// lookup reads without counting. Expired entries are removed lazily.
func (s *MemoryStore) lookup(key string) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}

	if s.opts.policy.Classify(entry.Age(s.opts.now())) == Expired {
		s.mu.Lock()
		// Only drop the entry we saw; a concurrent Set may have replaced it.
		if cur, ok := s.entries[key]; ok && cur.StoredAt.Equal(entry.StoredAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Set stores value under key, stamped with the current time.
func (s *MemoryStore) Set(_ context.Context, key string, value aggregate.Result) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.put(Entry{Key: key, Value: value, StoredAt: s.opts.now()})
	return nil
}

// put stores an entry keeping its StoredAt.
func (s *MemoryStore) put(entry Entry) {
	s.mu.Lock()
	s.entries[entry.Key] = entry
	s.mu.Unlock()
}

// Stats returns the current entry count and lookup counters.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	return Stats{
		Entries: s.Len(),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

// Len returns the number of stored entries, including expired entries the
// janitor has not swept yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Policy returns the store's freshness policy.
func (s *MemoryStore) Policy() Policy {
	return s.opts.policy
}

// Sweep removes expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if s.opts.policy.Classify(entry.Age(now)) == Expired {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) janitor(period time.Duration) {
	defer close(s.sweepDone)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.sweepDone
	return nil
}

var _ Store = (*MemoryStore)(nil)
