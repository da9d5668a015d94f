package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any *TimeoutError via errors.Is.
var ErrTimeout = errors.New("rate limit timeout")

// TimeoutError is returned when the next available slot for a key falls after
// the caller's deadline. No token is consumed.
type TimeoutError struct {
	Key      string
	Wait     time.Duration
	Deadline time.Time
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rate limit timeout for %s: next slot in %s exceeds deadline %s",
		e.Key, e.Wait.Round(time.Millisecond), e.Deadline.Format(time.RFC3339Nano))
}

// Is lets errors.Is(err, ErrTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// AsTimeoutError attempts to unwrap an error into a TimeoutError.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var tErr *TimeoutError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}
