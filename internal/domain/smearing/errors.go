package smearing

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrAlreadyRun reports a second Run on the same engine.
	ErrAlreadyRun = errors.New("engine already run")
	// ErrInvalidEvent reports a true value outside its physical domain.
	ErrInvalidEvent = errors.New("invalid event")
)
