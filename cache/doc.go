// Package cache stores aggregate search results with a staleness threshold.
//
// Entries move through three freshness bands as they age: fresh until
// Policy.StaleAfter, stale until Policy.TTL, and expired after that. Stores
// never return expired entries. Serving a stale entry and refreshing it is
// the caller's decision; Get never triggers work.
//
// Three Store implementations are provided: MemoryStore (process local, with
// a janitor sweeping expired entries), RedisStore (shared across processes)
// and TieredStore (memory in front of Redis).
package cache
