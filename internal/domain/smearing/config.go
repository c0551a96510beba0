package smearing

import (
	"fmt"
	"math"

	"github.com/okian/smear/internal/domain/detector"
)

// Config selects the resolution model and kernel scaling for a run.
type Config struct {
	Profile  detector.Profile
	Strategy detector.Strategy
	// SmearLevel is the constant-fraction spread as a fraction, 0.1 for 10%.
	SmearLevel float64
	// AsymmetryEnergy and AsymmetryDirection scale sigma after the FWHM
	// conversion.
	AsymmetryEnergy    float64
	AsymmetryDirection float64
	// Params overrides the profile's built-in parameterization when set.
	Params *detector.Params
	// MaxDraws bounds each sample's retry loop; zero selects the default.
	MaxDraws int
}

// DefaultConfig returns a constant-fraction ANTARES configuration with
// symmetric kernels.
func DefaultConfig() Config {
	return Config{
		Profile:            detector.Antares,
		Strategy:           detector.ConstantFraction,
		SmearLevel:         0.1,
		AsymmetryEnergy:    1,
		AsymmetryDirection: 1,
	}
}

// model checks the configuration and builds its resolution model.
func (c Config) model() (*detector.Model, error) {
	if err := c.Profile.Validate(); err != nil {
		return nil, err
	}
	if !finite(c.SmearLevel) || c.SmearLevel < 0 {
		return nil, fmt.Errorf("%w: smear level must be a non-negative number, got %v", detector.ErrConfiguration, c.SmearLevel)
	}
	if !finite(c.AsymmetryEnergy) || c.AsymmetryEnergy <= 0 {
		return nil, fmt.Errorf("%w: energy asymmetry must be positive, got %v", detector.ErrConfiguration, c.AsymmetryEnergy)
	}
	if !finite(c.AsymmetryDirection) || c.AsymmetryDirection <= 0 {
		return nil, fmt.Errorf("%w: direction asymmetry must be positive, got %v", detector.ErrConfiguration, c.AsymmetryDirection)
	}
	if c.MaxDraws < 0 {
		return nil, fmt.Errorf("%w: max draws must not be negative, got %d", detector.ErrConfiguration, c.MaxDraws)
	}
	var opts []detector.Option
	if c.Params != nil {
		opts = append(opts, detector.WithParams(*c.Params))
	}
	return detector.NewModel(c.Profile, c.Strategy, opts...)
}

// Validate reports whether the configuration can drive a run.
func (c Config) Validate() error {
	_, err := c.model()
	return err
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
