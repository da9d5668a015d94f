package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrDeadlineExceeded marks a run whose deadline passed while fetching.
	ErrDeadlineExceeded = errors.New("ingest deadline exceeded")
	// ErrProviderMismatch is returned when a unit names a provider the
	// pipeline was not built for.
	ErrProviderMismatch = errors.New("unit provider does not match pipeline source")
)

// RunError is the typed failure of a run, carrying the stage it failed in.
type RunError struct {
	Unit  string
	Stage State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("ingest %s failed during %s: %v", e.Unit, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// AsRunError attempts to unwrap an error into a RunError.
func AsRunError(err error) (*RunError, bool) {
	var rErr *RunError
	if errors.As(err, &rErr) {
		return rErr, true
	}
	return nil, false
}
