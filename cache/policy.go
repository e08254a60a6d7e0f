package cache

import (
	"fmt"
	"time"
)

// Freshness classifies an entry by age.
type Freshness int

const (
	// Fresh entries are served as is.
	Fresh Freshness = iota
	// Stale entries are served and should be refreshed in the background.
	Stale
	// Expired entries are never served.
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Policy configures entry lifetimes.
type Policy struct {
	// TTL is the age at which an entry expires.
	TTL time.Duration

	// StaleAfter is the age at which an entry becomes stale. Must be below TTL.
	StaleAfter time.Duration

	// CheckPeriod is how often MemoryStore sweeps expired entries.
	// Zero disables the sweep; expiry is still enforced on read.
	CheckPeriod time.Duration
}

// DefaultPolicy returns the default policy.
// TTL: 2 hours, StaleAfter: 1 hour, CheckPeriod: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		TTL:         2 * time.Hour,
		StaleAfter:  1 * time.Hour,
		CheckPeriod: 1 * time.Hour,
	}
}

// Validate checks that 0 < StaleAfter < TTL and CheckPeriod >= 0.
func (p Policy) Validate() error {
	if p.StaleAfter <= 0 || p.TTL <= p.StaleAfter {
		return fmt.Errorf("%w: need 0 < stale_after (%s) < ttl (%s)", ErrInvalidPolicy, p.StaleAfter, p.TTL)
	}
	if p.CheckPeriod < 0 {
		return fmt.Errorf("%w: negative check period %s", ErrInvalidPolicy, p.CheckPeriod)
	}
	return nil
}

// Classify returns the freshness band for an entry of the given age.
// Ages below zero (clock skew) count as fresh.
func (p Policy) Classify(age time.Duration) Freshness {
	switch {
	case age >= p.TTL:
		return Expired
	case age >= p.StaleAfter:
		return Stale
	default:
		return Fresh
	}
}
