package cache

import "errors"

// Sentinel errors for cache operations.
var (
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrInvalidPolicy = errors.New("cache: invalid policy")
	ErrNilBackend    = errors.New("cache: backend is nil")
)
