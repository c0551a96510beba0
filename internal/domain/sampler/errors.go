package sampler

import (
	"errors"
	"fmt"

	"github.com/okian/smear/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	// ErrSamplingStalled reports that the draw ceiling was reached before a
	// candidate satisfied the domain constraint.
	ErrSamplingStalled = errors.New("sampling stalled")
	// ErrInvalidSigma reports a negative or non-finite standard deviation.
	ErrInvalidSigma = errors.New("invalid standard deviation")
)

// StallError carries the parameters of a stalled sample.
type StallError struct {
	Axis  model.Axis
	Mean  float64
	Sigma float64
	Draws int
}

func (e *StallError) Error() string {
	return fmt.Sprintf("%s: %s axis mean=%g sigma=%g after %d draws",
		ErrSamplingStalled, e.Axis, e.Mean, e.Sigma, e.Draws)
}

// Unwrap makes errors.Is(err, ErrSamplingStalled) hold.
func (e *StallError) Unwrap() error { return ErrSamplingStalled }
