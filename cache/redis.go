package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/observe"
)

const scanBatchSize = 100

// RedisStore is a Store shared across processes through Redis.
// Entries are JSON encoded and carry a Redis expiry equal to the policy TTL.
type RedisStore struct {
	client redis.UniversalClient
	keyer  Keyer
	opts   storeOptions

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore creates a store on an existing client. The caller keeps
// ownership of the client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilBackend
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	if o.keyer == nil {
		o.keyer = NewHashKeyer("")
	}

	return &RedisStore{client: client, keyer: o.keyer, opts: o}, nil
}

// Get returns the entry for key if present and not expired.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool) {
	entry, ok, err := s.Load(ctx, key)
	if err != nil {
		s.opts.logger.Error(ctx, "cache read failed", observe.Field{Key: "error", Value: err})
	}
	if !ok || s.opts.policy.Classify(entry.Age(s.opts.now())) == Expired {
		s.misses.Add(1)
		return Entry{}, false
	}
	s.hits.Add(1)
	return entry, true
}

// Set stores value under key, stamped with the current time.
func (s *RedisStore) Set(ctx context.Context, key string, value aggregate.Result) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.Save(ctx, Entry{Key: key, Value: value, StoredAt: s.opts.now()})
}

// Load reads an entry without counting. A missing key is not an error.
func (s *RedisStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	redisKey := s.keyer.Key(key)

	data, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Drop the corrupted entry so the next miss rewrites it.
		_ = s.client.Del(ctx, redisKey).Err()
		return Entry{}, false, fmt.Errorf("cache: decode entry: %w", err)
	}
	// Guard against hash collisions.
	if entry.Key != key {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Save writes an entry keeping its StoredAt. The Redis expiry is the time
// remaining until the entry reaches the policy TTL.
func (s *RedisStore) Save(ctx context.Context, entry Entry) error {
	ttl := s.opts.policy.TTL - entry.Age(s.opts.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}
	if err := s.client.Set(ctx, s.keyer.Key(entry.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Count returns the number of keys under the store prefix.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	match := s.keyer.Prefix() + ":*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return 0, fmt.Errorf("cache: redis scan: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Stats returns the key count and this process's lookup counters.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	n, err := s.Count(ctx)
	if err != nil {
		s.opts.logger.Warn(ctx, "cache count failed", observe.Field{Key: "error", Value: err})
	}
	return Stats{Entries: n, Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Policy returns the store's freshness policy.
func (s *RedisStore) Policy() Policy {
	return s.opts.policy
}

// Ping checks connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var (
	_ Store   = (*RedisStore)(nil)
	_ Backend = (*RedisStore)(nil)
)
