package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/smear/internal/domain/detector"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SMEAR_"

// EnvConfigFile names the variable holding the YAML file path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or at $SMEAR_CONFIG when path is empty
//  3. env (prefix SMEAR_)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SMEAR_SMEAR_LEVEL -> smear_level; underscores match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	// The file path is not a setting.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.SeedPolicy == SeedFixed && !k.Exists("seed") {
		return nil, fmt.Errorf("%w: seed_policy %q needs a seed", ErrInvalidConfig, SeedFixed)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and the detector settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	p, err := detector.ParseProfile(c.Detector)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s, err := detector.ParseStrategy(c.Strategy)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := detector.NewModel(p, s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.SeedPolicy != SeedFixed && c.Seed != 0 {
		return fmt.Errorf("%w: seed %d needs seed_policy %q", ErrInvalidConfig, c.Seed, SeedFixed)
	}
	for name, coeff := range c.Profiles {
		if _, err := c.ProfileParams(name, coeff); err != nil {
			return err
		}
	}
	return nil
}

// ProfileParams converts one coefficient override to model parameters.
func (c *Config) ProfileParams(name string, coeff Coefficients) (detector.Params, error) {
	p, err := detector.ParseProfile(name)
	if err != nil {
		return detector.Params{}, fmt.Errorf("%w: profiles.%s: %v", ErrInvalidConfig, name, err)
	}
	params, err := detector.ParamsFromCoefficients(p, coeff.Energy, coeff.Direction)
	if err != nil {
		return detector.Params{}, fmt.Errorf("%w: profiles.%s: %v", ErrInvalidConfig, name, err)
	}
	return params, nil
}

// Params returns the coefficient override for profile p, if any.
func (c *Config) Params(p detector.Profile) (*detector.Params, error) {
	for name, coeff := range c.Profiles {
		if parsed, err := detector.ParseProfile(name); err == nil && parsed == p {
			params, err := c.ProfileParams(name, coeff)
			if err != nil {
				return nil, err
			}
			return &params, nil
		}
	}
	return nil, nil
}
