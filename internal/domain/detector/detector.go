// Package detector models detector resolution: the closed set of detector
// profiles, the two resolution strategies, and the mapping from a true
// observable to the full width at half maximum of its smearing kernel.
package detector

import (
	"fmt"
	"strings"
)

// Profile names a detector resolution variant.
type Profile string

// Known detector profiles.
const (
	Antares Profile = "ANTARES"
	Orca6   Profile = "ORCA6"
	Orca115 Profile = "ORCA115"
)

// Profiles lists every known profile.
func Profiles() []Profile { return []Profile{Antares, Orca6, Orca115} }

// ParseProfile resolves a profile name case-insensitively.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToUpper(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate reports whether p is a known profile.
func (p Profile) Validate() error {
	switch p {
	case Antares, Orca6, Orca115:
		return nil
	default:
		return fmt.Errorf("%w: unknown detector %q", ErrConfiguration, string(p))
	}
}

// Label is the lowercase name used in output labels, e.g. "orca6".
func (p Profile) Label() string { return strings.ToLower(string(p)) }

// Strategy selects how the spread is derived from a true value.
type Strategy string

// Resolution strategies.
const (
	// ConstantFraction spreads proportionally to the true value.
	ConstantFraction Strategy = "constant-fraction"
	// Parametric uses the profile's curve or fixed constant.
	Parametric Strategy = "parametric"
)

// ParseStrategy resolves a strategy name. Both "constant-fraction" and
// "constant_fraction" are accepted.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case string(ConstantFraction):
		return ConstantFraction, nil
	case string(Parametric):
		return Parametric, nil
	default:
		return "", fmt.Errorf("%w: unknown resolution strategy %q", ErrConfiguration, s)
	}
}

// StrategyFromFlag maps the command line resolution flag: Y selects the
// parametric resolution, N the constant fraction.
func StrategyFromFlag(flag string) (Strategy, error) {
	switch strings.TrimSpace(flag) {
	case "Y", "y":
		return Parametric, nil
	case "N", "n":
		return ConstantFraction, nil
	default:
		return "", fmt.Errorf("%w: resolution flag must be Y or N, got %q", ErrConfiguration, flag)
	}
}
