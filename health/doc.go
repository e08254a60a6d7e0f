// Package health reports whether the search service can serve requests.
//
// A Checker reports one component: the cache store, the Redis connection
// behind it, or the provider registry. An Aggregator runs every registered
// checker in parallel under a shared deadline and folds the results into
// one Status. The gin handlers expose the usual probes:
//
//	/healthz  liveness, always OK while the process serves HTTP
//	/readyz   readiness, 503 when any component is unhealthy
//	/health   JSON report of every component
package health
