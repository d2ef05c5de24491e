package session

import "fmt"

// State is the lifecycle position of an attempt session.
type State int

const (
	StateNotStarted State = iota // Created, clock not running
	StateInProgress              // Accepting answers under the countdown
	StateSubmitted               // Ended by the examinee
	StateExpired                 // Ended by the clock
	StateCancelled               // Abandoned, produces no attempt
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	case StateExpired:
		return "expired"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateExpired || s == StateCancelled
}

// Scorable reports whether the session ended in a way that yields an attempt.
func (s State) Scorable() bool {
	return s == StateSubmitted || s == StateExpired
}

// StateError is returned when an operation is not valid in the session's
// current state. The session is left unchanged.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session: cannot %s in state %s", e.Op, e.State)
}
