package detector

import "fmt"

// CanDimensions bounds the instrumented volume, in metres.
type CanDimensions struct {
	ZMin   float64
	ZMax   float64
	Radius float64
}

var cans = map[Profile]CanDimensions{ //nolint:gochecknoglobals // immutable lookup table
	Antares: {ZMin: -271.42, ZMax: 357.94, Radius: 279.45},
}

// Can returns the can dimensions recorded for p.
func Can(p Profile) (CanDimensions, error) {
	if err := p.Validate(); err != nil {
		return CanDimensions{}, err
	}
	c, ok := cans[p]
	if !ok {
		return CanDimensions{}, fmt.Errorf("%w: %s", ErrNoGeometry, p)
	}
	return c, nil
}
