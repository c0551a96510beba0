package smearing

// State is the lifecycle state of an Engine.
type State int

// Engine states. Idle moves to Running once the configuration validates;
// Running ends in Completed or Failed.
const (
	Idle State = iota
	Running
	Completed
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
