// Package evolution defines the evolution state document, its state machine,
// and the store that reads it from disk.
package evolution

import "strings"

// State represents a phase of the evolution workflow state machine.
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateValidating State = "validating"
	StateObtaining  State = "obtaining"
	StateLocking    State = "locking"
	StateVerifying  State = "verifying"
	StateEnabling   State = "enabling"
	StateAborted    State = "aborted"
	StateBlocked    State = "blocked"
	StateFailed     State = "failed"
)

// AllStates returns all valid states in workflow order.
func AllStates() []State {
	return []State{
		StateIdle,
		StateEvaluating,
		StateValidating,
		StateObtaining,
		StateLocking,
		StateVerifying,
		StateEnabling,
		StateAborted,
		StateBlocked,
		StateFailed,
	}
}

// ParseState normalizes a state name to its canonical form.
// Returns empty string if the state is not recognized.
func ParseState(name string) State {
	normalized := State(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range AllStates() {
		if normalized == s {
			return s
		}
	}
	return ""
}

// IsValid returns true if the state is a recognized state name.
func (s State) IsValid() bool {
	return ParseState(string(s)) != ""
}

// OrIdle returns the state itself when valid, otherwise StateIdle.
// Consumers treat unknown values as idle.
func (s State) OrIdle() State {
	if parsed := ParseState(string(s)); parsed != "" {
		return parsed
	}
	return StateIdle
}
