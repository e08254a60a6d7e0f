package aggregate

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrMismatchedOutcomes is returned when outcomes do not line up with the
// provider list.
var ErrMismatchedOutcomes = errors.New("aggregate: outcomes do not match providers")

// Result is the combined response for one query across all providers.
type Result struct {
	Query         string    `json:"query"`
	Results       []Outcome `json:"results"`
	TotalProducts int       `json:"totalProducts"`
	GeneratedAt   time.Time `json:"timestamp"`

	// ServedFromCache is false for a result computed on a cache miss and true
	// for one written by a background refresh.
	ServedFromCache bool      `json:"cached"`
	CachedAt        time.Time `json:"cacheTimestamp"`
}

// Assemble builds a Result from outcomes indexed by provider slot.
//
// names lists provider display names in registration order; outcomes[i]
// must belong to names[i].
func Assemble(query string, names []string, outcomes []Outcome, generatedAt time.Time) (Result, error) {
	if len(names) != len(outcomes) {
		return Result{}, fmt.Errorf("%w: %d providers, %d outcomes", ErrMismatchedOutcomes, len(names), len(outcomes))
	}

	results := make([]Outcome, len(outcomes))
	for i, name := range names {
		if outcomes[i].Site != name {
			return Result{}, fmt.Errorf("%w: slot %d is %q, want %q", ErrMismatchedOutcomes, i, outcomes[i].Site, name)
		}
		results[i] = outcomes[i]
	}

	return Result{
		Query:         query,
		Results:       results,
		TotalProducts: Total(results),
		GeneratedAt:   generatedAt,
	}, nil
}

// Total sums ProductCount over successful outcomes.
func Total(outcomes []Outcome) int {
	total := 0
	for _, o := range outcomes {
		if o.Success {
			total += o.ProductCount
		}
	}
	return total
}

// Failed returns the number of failed outcomes.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Results {
		if !o.Success {
			n++
		}
	}
	return n
}

// Equivalent reports whether two results carry the same query and outcomes,
// ignoring timestamps and the cache flag.
func (r Result) Equivalent(other Result) bool {
	return r.Query == other.Query &&
		r.TotalProducts == other.TotalProducts &&
		reflect.DeepEqual(r.Results, other.Results)
}
