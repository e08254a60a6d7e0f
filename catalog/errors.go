package catalog

import "errors"

// Sentinel errors for provider registration.
var (
	ErrNilProvider       = errors.New("catalog: provider is nil")
	ErrInvalidKey        = errors.New("catalog: provider key is invalid")
	ErrDuplicateProvider = errors.New("catalog: provider already registered")
	ErrUnknownProvider   = errors.New("catalog: provider not registered")
)
