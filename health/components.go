package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/catalog"
)

// StoreChecker reports the search cache statistics and policy.
type StoreChecker struct {
	store cache.Store
}

// NewStoreChecker creates a checker for store.
func NewStoreChecker(store cache.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

// Name returns "cache".
func (c *StoreChecker) Name() string { return "cache" }

// Check reads the store statistics.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}
	stats := c.store.Stats(ctx)
	policy := c.store.Policy()
	return Healthy(fmt.Sprintf("%d cached queries", stats.Entries)).WithDetails(map[string]any{
		"keys":        stats.Entries,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"ttl":         policy.TTL.String(),
		"stale_after": policy.StaleAfter.String(),
	})
}

// RedisChecker pings the Redis server behind a shared cache.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a checker for client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns "redis".
func (c *RedisChecker) Name() string { return "redis" }

// Check sends PING.
func (c *RedisChecker) Check(ctx context.Context) Result {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return Unhealthy("redis unreachable", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	return Healthy("redis reachable")
}

// RegistryChecker reports the configured providers. With none registered
// every search would return an empty aggregate.
type RegistryChecker struct {
	registry *catalog.Registry
}

// NewRegistryChecker creates a checker for reg.
func NewRegistryChecker(reg *catalog.Registry) *RegistryChecker {
	return &RegistryChecker{registry: reg}
}

// Name returns "providers".
func (c *RegistryChecker) Name() string { return "providers" }

// Check counts registered providers.
func (c *RegistryChecker) Check(context.Context) Result {
	n := c.registry.Len()
	if n == 0 {
		return Unhealthy("no providers registered", ErrCheckFailed)
	}
	return Healthy(fmt.Sprintf("%d providers registered", n)).WithDetails(map[string]any{
		"providers": c.registry.Keys(),
	})
}

var (
	_ Checker = (*StoreChecker)(nil)
	_ Checker = (*RedisChecker)(nil)
	_ Checker = (*RegistryChecker)(nil)
)
