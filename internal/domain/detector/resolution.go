package detector

import (
	"fmt"
	"math"

	"github.com/okian/smear/internal/domain/model"
)

// AxisModel maps the true value of one axis to a FWHM.
type AxisModel interface {
	FWHM(x float64) float64
}

// Curve is the rational parameterization FWHM(x) = A/(B*x + C) + D.
type Curve struct {
	A, B, C, D float64
}

// FWHM evaluates the curve at x.
func (c Curve) FWHM(x float64) float64 {
	return c.A/(c.B*x+c.C) + c.D
}

// Fixed is a resolution that does not depend on the true value.
type Fixed float64

// FWHM returns the constant.
func (f Fixed) FWHM(float64) float64 { return float64(f) }

// Params is the parametric resolution of one profile.
type Params struct {
	Energy    AxisModel
	Direction AxisModel
	// ConstantFraction reports whether the profile also supports the
	// constant-fraction strategy.
	ConstantFraction bool
}

func (p Params) axis(a model.Axis) (AxisModel, error) {
	switch a {
	case model.AxisEnergy:
		return p.Energy, nil
	case model.AxisDirection:
		return p.Direction, nil
	default:
		return nil, fmt.Errorf("%w: unknown axis %s", ErrConfiguration, a)
	}
}

// Built-in parameterizations. These are placeholder values; real
// resolutions are supplied per profile under profiles.<name> in config.
var builtin = map[Profile]Params{ //nolint:gochecknoglobals // immutable lookup table
	Antares: {
		Energy:           Curve{A: 25.0, B: 0.1, C: 1.0, D: 3.0},
		Direction:        Curve{A: 0.3, B: 0.5, C: 2.0, D: 0.05},
		ConstantFraction: true,
	},
	Orca6: {
		Energy:    Fixed(7.5),
		Direction: Fixed(0.2),
	},
	Orca115: {
		Energy:    Fixed(3.0),
		Direction: Fixed(0.08),
	},
}

// BuiltinParams returns the built-in parameterization of p.
func BuiltinParams(p Profile) (Params, error) {
	params, ok := builtin[p]
	if !ok {
		return Params{}, p.Validate()
	}
	return params, nil
}

// ParamsFromCoefficients builds a parameterization for p from raw
// coefficients: four values {A,B,C,D} per axis for ANTARES, one fixed FWHM per
// axis for the ORCA profiles.
func ParamsFromCoefficients(p Profile, energy, direction []float64) (Params, error) {
	base, err := BuiltinParams(p)
	if err != nil {
		return Params{}, err
	}
	build := func(a model.Axis, coeffs []float64) (AxisModel, error) {
		for _, c := range coeffs {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("%w: %s %s coefficient %v is not finite", ErrConfiguration, p, a, c)
			}
		}
		switch {
		case p == Antares && len(coeffs) == 4:
			return Curve{A: coeffs[0], B: coeffs[1], C: coeffs[2], D: coeffs[3]}, nil
		case p != Antares && len(coeffs) == 1:
			return Fixed(coeffs[0]), nil
		default:
			return nil, fmt.Errorf("%w: %s %s resolution takes %d coefficients, got %d",
				ErrConfiguration, p, a, coefficientCount(p), len(coeffs))
		}
	}
	if len(energy) > 0 {
		if base.Energy, err = build(model.AxisEnergy, energy); err != nil {
			return Params{}, err
		}
	}
	if len(direction) > 0 {
		if base.Direction, err = build(model.AxisDirection, direction); err != nil {
			return Params{}, err
		}
	}
	return base, nil
}

func coefficientCount(p Profile) int {
	if p == Antares {
		return 4
	}
	return 1
}

// Resolve returns the FWHM of the smearing kernel for the true value x on
// the given axis, using the built-in parameterizations. level is the smear
// fraction used by the constant-fraction strategy.
func Resolve(p Profile, s Strategy, a model.Axis, x, level float64) (float64, error) {
	params, err := BuiltinParams(p)
	if err != nil {
		return 0, err
	}
	return resolve(params, p, s, a, x, level)
}

func resolve(params Params, p Profile, s Strategy, a model.Axis, x, level float64) (float64, error) {
	var fwhm float64
	switch s {
	case ConstantFraction:
		if !params.ConstantFraction {
			return 0, fmt.Errorf("%w: detector %s does not support the %s strategy", ErrConfiguration, p, s)
		}
		if _, err := params.axis(a); err != nil {
			return 0, err
		}
		fwhm = level * x
	case Parametric:
		m, err := params.axis(a)
		if err != nil {
			return 0, err
		}
		fwhm = m.FWHM(x)
	default:
		return 0, fmt.Errorf("%w: unknown resolution strategy %q", ErrConfiguration, string(s))
	}

	// A direction cosine may be negative; its spread may not.
	if a == model.AxisDirection {
		fwhm = math.Abs(fwhm)
	}
	if math.IsNaN(fwhm) || math.IsInf(fwhm, 0) {
		return 0, fmt.Errorf("%w: %s %s resolution is not finite at x=%v", ErrConfiguration, p, a, x)
	}
	return fwhm, nil
}
