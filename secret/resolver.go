package secret

import (
	"context"
	"fmt"
	"strings"
)

const refPrefix = "secretref:"

// Resolver turns configured values into secrets. A value of the form
// secretref:<provider>:<ref> is fetched from that provider; any other value
// has its ${VAR} references expanded and is used as is.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver. A strict resolver rejects refs that
// resolve to the empty string.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers)), strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider. Nil is ignored.
func (r *Resolver) Register(p Provider) {
	if p != nil {
		r.providers[p.Name()] = p
	}
}

// ResolveValue resolves one value.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	if strings.HasPrefix(value, refPrefix) {
		provider, ref, ok := ParseSecretRef(value)
		if !ok {
			return "", fmt.Errorf("%w: want %s<provider>:<ref>", ErrInvalidRef, refPrefix)
		}
		return r.fetch(ctx, provider, ref)
	}
	return ExpandEnvStrict(value)
}

// ResolveSlice resolves each value, keeping order.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		s, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Target is a named string resolved in place by ResolveAll.
type Target struct {
	Name  string
	Value *string
}

// ResolveAll resolves every target in place. It stops at the first failure
// and names the offending target; secret values never appear in errors.
func (r *Resolver) ResolveAll(ctx context.Context, targets ...Target) error {
	for _, t := range targets {
		s, err := r.ResolveValue(ctx, *t.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		*t.Value = s
	}
	return nil
}

// ParseSecretRef splits secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) fetch(ctx context.Context, name, ref string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	s, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && s == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, name)
	}
	return s, nil
}
