// Package aggregate assembles per-provider outcomes into one search response.
//
// An Outcome records what a single provider produced for a query, success or
// failure. Assemble orders outcomes by provider registration and computes the
// product total. The package performs no I/O.
package aggregate
