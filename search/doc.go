// Package search serves aggregate searches through the cache.
//
// A fresh cached result is returned as stored. A stale one is returned as
// stored and refreshed in the background. On a miss the providers are
// queried synchronously and the result is cached before it is returned.
// Streaming searches bypass the cache.
package search
