package dataset

import (
	"fmt"
	"strings"
)

// Field naming conventions for the true observables.
const (
	ConventionTrue     = "true"
	ConventionRecoTrue = "recoTrue"
)

// Fields names the columns holding true energy and true direction cosine.
type Fields struct {
	Energy    string
	CosZenith string
}

// FieldsFor returns the column names of a naming convention: "true" maps to
// energy_true/cos_zenith_true and "recoTrue" to
// energy_recoTrue/cos_zenith_recoTrue.
func FieldsFor(convention string) (Fields, error) {
	switch strings.ToLower(strings.TrimSpace(convention)) {
	case "", strings.ToLower(ConventionTrue):
		return Fields{Energy: "energy_true", CosZenith: "cos_zenith_true"}, nil
	case strings.ToLower(ConventionRecoTrue):
		return Fields{Energy: "energy_recoTrue", CosZenith: "cos_zenith_recoTrue"}, nil
	default:
		return Fields{}, fmt.Errorf("%w: %q", ErrUnknownConvention, convention)
	}
}

// Override replaces the non-empty names of o.
func (f Fields) Override(o Fields) Fields {
	if o.Energy != "" {
		f.Energy = o.Energy
	}
	if o.CosZenith != "" {
		f.CosZenith = o.CosZenith
	}
	return f
}

// DefaultFields is the "true" convention.
func DefaultFields() Fields {
	f, _ := FieldsFor(ConventionTrue)
	return f
}
