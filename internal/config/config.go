// Package config defines the smearing run configuration and its loading.
//
// Conventions:
// - New returns a Config carrying every default.
// - Load layers a YAML file and SMEAR_* environment variables over New.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"github.com/okian/smear/internal/domain/sampler"
)

// Seed policies.
const (
	SeedFixed   = "fixed"
	SeedEntropy = "entropy"
)

// Config contains the run configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	// Detector selects the profile: ANTARES, ORCA6 or ORCA115.
	Detector string `koanf:"detector" validate:"required"`

	// Strategy selects constant-fraction or parametric resolution.
	Strategy string `koanf:"strategy" validate:"required"`

	// SmearLevel is the constant-fraction spread as a fraction, 0.1 for 10%.
	SmearLevel float64 `koanf:"smear_level" validate:"gte=0"`

	// AsymmetryEnergy and AsymmetryDirection scale the kernel widths.
	AsymmetryEnergy    float64 `koanf:"asymmetry_energy" validate:"gt=0"`
	AsymmetryDirection float64 `koanf:"asymmetry_direction" validate:"gt=0"`

	// SeedPolicy is "fixed" (Seed is used) or "entropy" (a fresh seed per run).
	SeedPolicy string `koanf:"seed_policy" validate:"oneof=fixed entropy"`
	Seed       int64  `koanf:"seed"`

	// FieldConvention picks the true-value columns: "true" or "recoTrue".
	FieldConvention string `koanf:"field_convention" validate:"oneof=true recoTrue"`
	// EnergyField and CosZenithField override the convention's column names.
	EnergyField    string `koanf:"energy_field"`
	CosZenithField string `koanf:"cos_zenith_field"`

	// Tree names the table read from the input and written to the output.
	Tree string `koanf:"tree" validate:"required"`

	// MaxDraws bounds the rejection loop of one sample.
	MaxDraws int `koanf:"max_draws" validate:"gt=0"`

	// MetricsFile, when set, receives the run metrics in text exposition format.
	MetricsFile string `koanf:"metrics_file"`

	// Profiles overrides the built-in resolution coefficients per detector.
	Profiles map[string]Coefficients `koanf:"profiles"`
}

// Coefficients overrides one detector's parameterization: four curve
// coefficients per axis for ANTARES, one fixed FWHM per axis for ORCA.
type Coefficients struct {
	Energy    []float64 `koanf:"energy"`
	Direction []float64 `koanf:"direction"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Detector:           "ANTARES",
		Strategy:           "constant-fraction",
		SmearLevel:         0.1,
		AsymmetryEnergy:    1,
		AsymmetryDirection: 1,
		SeedPolicy:         SeedEntropy,
		FieldConvention:    "true",
		Tree:               "sel",
		MaxDraws:           sampler.DefaultMaxDraws,
	}
}
