// Package server exposes the search service over HTTP with gin.
//
// Routes:
//
//	GET /search?q=         aggregate JSON, cached with stale-while-revalidate
//	GET /search-stream?q=  server-sent events, one per provider
//	GET /cache-info        cache statistics
//	GET /healthz /readyz /health
//	GET /metrics           when a metrics handler is configured
package server
