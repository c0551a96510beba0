package detector

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrConfiguration reports an unknown profile or strategy, an unsupported
	// profile/strategy combination, or unusable resolution parameters.
	ErrConfiguration = errors.New("invalid smearing configuration")
	// ErrNoGeometry reports a profile without recorded can dimensions.
	ErrNoGeometry = errors.New("no geometry recorded for detector")
)
