package search

import (
	"errors"
	"fmt"
)

// Validation errors. Both map to a client error at the transport.
var (
	ErrEmptyQuery   = errors.New("search query is required")
	ErrInvalidQuery = errors.New("search query is invalid")
)

// ErrStreamingDisabled is returned by Stream when no dispatcher is configured.
var ErrStreamingDisabled = errors.New("search: streaming is not configured")

// InternalError reports a cache or aggregation fault.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("search: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a caller-side validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidQuery)
}
