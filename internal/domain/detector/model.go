package detector

import (
	"fmt"

	"github.com/okian/smear/internal/domain/model"
)

// Model binds a profile, a strategy and the profile's parameterization.
type Model struct {
	profile  Profile
	strategy Strategy
	params   Params
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithParams replaces the built-in parameterization.
func WithParams(params Params) Option {
	return func(m *Model) {
		if params.Energy != nil {
			m.params.Energy = params.Energy
		}
		if params.Direction != nil {
			m.params.Direction = params.Direction
		}
	}
}

// NewModel validates the profile/strategy combination and returns a Model.
func NewModel(p Profile, s Strategy, opts ...Option) (*Model, error) {
	params, err := BuiltinParams(p)
	if err != nil {
		return nil, err
	}
	m := &Model{profile: p, strategy: s, params: params}
	for _, opt := range opts {
		opt(m)
	}

	switch s {
	case Parametric:
	case ConstantFraction:
		if !m.params.ConstantFraction {
			return nil, fmt.Errorf("%w: detector %s does not support the %s strategy", ErrConfiguration, p, s)
		}
	default:
		return nil, fmt.Errorf("%w: unknown resolution strategy %q", ErrConfiguration, string(s))
	}
	return m, nil
}

// Profile returns the model's detector profile.
func (m *Model) Profile() Profile { return m.profile }

// Strategy returns the model's resolution strategy.
func (m *Model) Strategy() Strategy { return m.strategy }

// FWHM returns the kernel width for the true value x on axis a.
func (m *Model) FWHM(a model.Axis, x, level float64) (float64, error) {
	return resolve(m.params, m.profile, m.strategy, a, x, level)
}
