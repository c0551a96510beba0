package smearing

import "time"

// Diagnostics accounts for the sampling cost of one run.
type Diagnostics struct {
	RunID string
	// Events is the number of events appended to the sink.
	Events int64
	// Draws counts every normal draw, accepted or rejected, on both axes.
	Draws          int64
	EnergyDraws    int64
	DirectionDraws int64
	Elapsed        time.Duration
}

// MinDraws is the draw count of a run in which no draw was rejected.
func (d Diagnostics) MinDraws() int64 { return 2 * d.Events }

// Overhead returns the oversampling overhead (draws/events - 1) * 100 in
// percent. Draws are counted on both axes, so a run without rejections
// reports 100. An empty run reports 0.
func (d Diagnostics) Overhead() float64 {
	if d.Events == 0 {
		return 0
	}
	return (float64(d.Draws)/float64(d.Events) - 1) * 100
}

// RejectionOverhead returns the rejected draws as a percentage of MinDraws.
// An empty run reports 0.
func (d Diagnostics) RejectionOverhead() float64 {
	if d.Events == 0 {
		return 0
	}
	return (float64(d.Draws)/float64(d.MinDraws()) - 1) * 100
}
