package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is an ordered set of providers keyed by Provider.Key.
//
// Registration order is significant: aggregates list provider outcomes in
// this order regardless of completion order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates a registry, registering providers in order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a provider.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return ErrNilProvider
	}
	key := p.Key()
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, key)
	}
	r.providers[key] = p
	r.order = append(r.order, key)
	return nil
}

// Providers returns all providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.providers[key])
	}
	return out
}

// Subset returns the named providers in the order given.
func (r *Registry) Subset(keys ...string) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(keys))
	for _, key := range keys {
		p, ok := r.providers[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, key)
		}
		out = append(out, p)
	}
	return out, nil
}

// Names returns the display names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.providers[key].Name())
	}
	return names
}

// Keys returns the provider keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
