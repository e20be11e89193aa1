package evolution

// transitions is the authoritative state machine table. Each entry lists the
// states reachable from the key; anything not listed is an invalid transition,
// including same-state writes that are not explicit self-loops.
var transitions = map[State][]State{
	StateIdle:       {StateEvaluating},
	StateEvaluating: {StateValidating, StateAborted},
	StateValidating: {StateObtaining, StateAborted},

	// obtaining self-loops while more research accumulates.
	StateObtaining: {StateLocking, StateObtaining},

	// locking self-loops on lock acquisition retry.
	StateLocking: {StateVerifying, StateLocking},

	// verifying can fall back to locking to fix issues found during review.
	StateVerifying: {StateEnabling, StateLocking},

	StateEnabling: {StateIdle},

	// aborted is terminal.
	StateAborted: {},

	// blocked resumes to any active phase.
	StateBlocked: {
		StateEvaluating,
		StateValidating,
		StateObtaining,
		StateLocking,
		StateVerifying,
		StateEnabling,
	},

	StateFailed: {StateIdle},
}

// ValidNext returns the states reachable from the given state.
// Unknown states are treated as idle.
func ValidNext(from State) []State {
	next, ok := transitions[from.OrIdle()]
	if !ok {
		return nil
	}
	out := make([]State, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the state machine permits moving from one
// state to another. Unknown current states are treated as idle; unknown
// targets are never permitted.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from.OrIdle()] {
		if next == to {
			return true
		}
	}
	return false
}
