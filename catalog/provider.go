package catalog

import "context"

// Data is what a provider returns for one query.
type Data struct {
	// URL is the page the products were read from.
	URL string

	// Products in the order the source listed them.
	Products []Product

	// ProductCount is the number of products found. Zero means unset.
	ProductCount int
}

// Count returns ProductCount, falling back to len(Products) when unset.
func (d Data) Count() int {
	if d.ProductCount > 0 {
		return d.ProductCount
	}
	return len(d.Products)
}

// Provider is an external, independently failing product source.
//
// Contract:
// - Concurrency: Fetch must be safe to call concurrently for different queries.
// - Context: Fetch should stop work and return promptly once ctx is done.
// - Errors: a returned error carries a human-readable message; it is reported
// per provider and never aborts an aggregate.
type Provider interface {
	// Name is the display name used in aggregate results.
	Name() string

	// Key is the stable identifier used to tag streamed events.
	Key() string

	// Fetch runs the query against the source.
	Fetch(ctx context.Context, query string) (Data, error)
}

// ProviderFunc adapts an ordinary function into a Provider.
type ProviderFunc struct {
	key  string
	name string
	fn   func(context.Context, string) (Data, error)
}

// NewProviderFunc creates a Provider from fn.
func NewProviderFunc(key, name string, fn func(ctx context.Context, query string) (Data, error)) *ProviderFunc {
	return &ProviderFunc{key: key, name: name, fn: fn}
}

// Name returns the display name.
func (p *ProviderFunc) Name() string { return p.name }

// Key returns the stream key.
func (p *ProviderFunc) Key() string { return p.key }

// Fetch calls the wrapped function.
func (p *ProviderFunc) Fetch(ctx context.Context, query string) (Data, error) {
	return p.fn(ctx, query)
}

var _ Provider = (*ProviderFunc)(nil)
