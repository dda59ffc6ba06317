// Package session holds the shopping session entity, its state machine, the
// concurrency-safe store, and the progress event hub.
package session

// State is the lifecycle phase of a shopping session.
type State string

// Session states, in pipeline order. Failed is reachable from any
// non-terminal state; Cancelled only from AwaitingConfirmation.
const (
	StatePlanning             State = "planning"
	StateDiscovering          State = "discovering"
	StateSearching            State = "searching"
	StateComparing            State = "comparing"
	StateOptimizing           State = "optimizing"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCheckingOut          State = "checking_out"
	StateCompleted            State = "completed"
	StateFailed               State = "failed"
	StateCancelled            State = "cancelled"
)

// transitions is the allowed forward edges, excluding the universal
// any-non-terminal -> failed edge handled in CanTransition.
var transitions = map[State][]State{
	StatePlanning:             {StateDiscovering},
	StateDiscovering:          {StateSearching},
	StateSearching:            {StateComparing},
	StateComparing:            {StateOptimizing},
	StateOptimizing:           {StateAwaitingConfirmation},
	StateAwaitingConfirmation: {StateCheckingOut, StateCancelled},
	StateCheckingOut:          {StateCompleted},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	if next == StateFailed {
		return !s.Terminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}
