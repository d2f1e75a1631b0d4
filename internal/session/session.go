// Package session owns the answer-session state machine. A single
// goroutine consumes every command and pipeline event from one ordered
// queue, so no session state is ever touched concurrently.
package session

// State is the controller's top-level mode.
type State int

const (
	// StateIdle means capture is off.
	StateIdle State = iota
	// StateListening means frames are flowing and segments may open.
	StateListening
	// StateAwaitingAnswer means listening continues while at least one
	// question is in flight.
	StateAwaitingAnswer
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	default:
		return "idle"
	}
}
