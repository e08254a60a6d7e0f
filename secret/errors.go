package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	ErrUnknownProvider = errors.New("secret: provider is not registered")
	ErrEmptySecret     = errors.New("secret: resolved value is empty")
	ErrMissingEnv      = errors.New("secret: missing required environment variables")
	ErrInvalidRef      = errors.New("secret: invalid reference")
)
