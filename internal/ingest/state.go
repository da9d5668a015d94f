package ingest

import "time"

// State is a stage of the per-unit state machine.
type State string

const (
	StateFetching    State = "FETCHING"
	StateNormalizing State = "NORMALIZING"
	StateValidating  State = "VALIDATING"
	StatePersisting  State = "PERSISTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition records entry into a state.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}
