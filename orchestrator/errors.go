package orchestrator

import "errors"

// ErrNilRegistry is returned by New when no registry is given.
var ErrNilRegistry = errors.New("orchestrator: registry is nil")
