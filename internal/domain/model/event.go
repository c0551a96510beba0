// Package model contains domain models passed between layers.
package model

import "fmt"

// Axis identifies one smeared observable.
type Axis int

const (
	// AxisEnergy is the particle energy in GeV.
	AxisEnergy Axis = iota
	// AxisDirection is the cosine of the zenith angle.
	AxisDirection
)

// String implements fmt.Stringer.
func (a Axis) String() string {
	switch a {
	case AxisEnergy:
		return "energy"
	case AxisDirection:
		return "direction"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Axes lists every axis in processing order.
func Axes() []Axis { return []Axis{AxisEnergy, AxisDirection} }

// Event is one simulated physics event.
type Event struct {
	EnergyTrue    float64 // true energy, > 0
	CosZenithTrue float64 // true direction cosine, in [-1,1]

	EnergySmeared    float64 // written once by the engine, > 0
	CosZenithSmeared float64 // written once by the engine, in [-1,1]

	// Raw holds the source record's column values in schema order. Sinks
	// copy it through unchanged ahead of the smeared columns.
	Raw []any
}

// True returns the true value of the given axis.
func (e *Event) True(a Axis) float64 {
	if a == AxisDirection {
		return e.CosZenithTrue
	}
	return e.EnergyTrue
}
