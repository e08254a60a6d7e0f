package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Entry is one cached aggregate result.
type Entry struct {
	Key      string           `json:"key"`
	Value    aggregate.Result `json:"value"`
	StoredAt time.Time        `json:"storedAt"`
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Stats reports the store's size and lookup counters.
type Stats struct {
	Entries int   `json:"keys"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Store caches aggregate results by query.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use. Set replaces
// the whole entry; concurrent writers to one key resolve as last writer wins.
// - Get counts exactly one hit or one miss per call and never returns an entry
// whose age has reached the policy TTL.
// - Errors: Get never errors; backend faults are reported as misses.
type Store interface {
	// Get returns the entry for key if present and not expired.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set stores value under key, stamped with the current time.
	Set(ctx context.Context, key string, value aggregate.Result) error

	// Stats returns the current entry count and lookup counters.
	Stats(ctx context.Context) Stats

	// Policy returns the freshness policy applied by the store.
	Policy() Policy
}

// Backend is raw entry storage without lookup accounting or expiry checks.
// TieredStore uses one as its shared second tier.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, entry Entry) error
	Count(ctx context.Context) (int, error)
}

// ValidateKey checks if a key is valid for caching.
// Keys are otherwise used verbatim: case and surrounding whitespace matter.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
