// Package sampler draws from normal distributions truncated to a domain by
// acceptance-rejection.
package sampler

import (
	"fmt"
	"math"

	"github.com/okian/smear/internal/domain/model"
)

// DefaultMaxDraws bounds the retry loop of a single sample. Well-posed
// inputs accept within a handful of draws; the ceiling only trips on
// degenerate configurations.
const DefaultMaxDraws = 1_000_000

// Source is the pseudorandom stream. *rand.Rand satisfies it.
type Source interface {
	NormFloat64() float64
}

// Predicate reports whether a candidate lies in the target domain.
type Predicate func(x float64) bool

// Positive accepts x > 0. It constrains smeared energies.
func Positive(x float64) bool { return x > 0 }

// UnitInterval accepts -1 <= x <= 1. It constrains smeared direction cosines.
func UnitInterval(x float64) bool { return x >= -1 && x <= 1 }

// ForAxis returns the domain constraint of an axis.
func ForAxis(a model.Axis) Predicate {
	if a == model.AxisDirection {
		return UnitInterval
	}
	return Positive
}

// Sampler draws truncated normal samples.
type Sampler struct {
	maxDraws int
	axis     model.Axis
}

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithMaxDraws sets the per-sample draw ceiling.
func WithMaxDraws(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxDraws = n
		}
	}
}

// WithAxis labels stall errors with the axis being sampled.
func WithAxis(a model.Axis) Option {
	return func(s *Sampler) {
		s.axis = a
	}
}

// New creates a Sampler.
func New(opts ...Option) *Sampler {
	s := &Sampler{maxDraws: DefaultMaxDraws}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDraws returns the per-sample draw ceiling.
func (s *Sampler) MaxDraws() int { return s.maxDraws }

// Sample draws mean + sigma*N(0,1) from rng until accept holds. It returns
// the accepted value and the number of draws consumed, at least one.
func (s *Sampler) Sample(mean, sigma float64, accept Predicate, rng Source) (float64, int, error) {
	if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return 0, 0, fmt.Errorf("%w: %s axis sigma=%g", ErrInvalidSigma, s.axis, sigma)
	}
	for draws := 1; draws <= s.maxDraws; draws++ {
		x := mean + sigma*rng.NormFloat64()
		if accept(x) {
			return x, draws, nil
		}
	}
	return 0, s.maxDraws, &StallError{Axis: s.axis, Mean: mean, Sigma: sigma, Draws: s.maxDraws}
}

// Sample draws with the default ceiling. See Sampler.Sample.
func Sample(mean, sigma float64, accept Predicate, rng Source) (float64, int, error) {
	return New().Sample(mean, sigma, accept, rng)
}
