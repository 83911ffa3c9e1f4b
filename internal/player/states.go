package player

// State represents the lifecycle of a playback session.
type State string

const (
	// StateLoading means the structure or resumed progress is not yet bound.
	StateLoading State = "loading"
	// StateReady means a node is playing or ready to play.
	StateReady State = "ready"
	// StateAwaitingChoice means the node's video finished and the session is
	// waiting for the user to pick a branch.
	StateAwaitingChoice State = "awaiting_choice"
	// StateCompleted means a terminal node finished; the playthrough is over.
	StateCompleted State = "completed"
	// StateFailed means a content-integrity defect made the session unplayable.
	StateFailed State = "failed"
	// StateClosed means the session was torn down.
	StateClosed State = "closed"
)

var allStates = []State{
	StateLoading,
	StateReady,
	StateAwaitingChoice,
	StateCompleted,
	StateFailed,
	StateClosed,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// Valid reports whether s is a known session state.
func (s State) Valid() bool {
	_, ok := stateSet[s]
	return ok
}

// Terminal reports whether the session can make no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateClosed
}
