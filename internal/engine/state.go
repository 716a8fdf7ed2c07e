package engine

// State is the build lifecycle position of an Engine.
type State uint8

const (
	StateNotStarted State = iota
	StateRunning
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
