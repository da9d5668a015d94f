package ratelimit

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Quota allows Requests grants in any sliding Window. Burst caps how many
// of those may be handed out back to back.
type Quota struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// PerMinute is shorthand for an n requests/minute quota with burst 1.
func PerMinute(n int) Quota {
	return Quota{Requests: n, Window: time.Minute, Burst: 1}
}

// Validate reports whether the quota can back a bucket.
func (q Quota) Validate() error {
	if q.Requests <= 0 {
		return fmt.Errorf("ratelimit: requests must be positive, got %d", q.Requests)
	}
	if q.Window <= 0 {
		return fmt.Errorf("ratelimit: window must be positive, got %s", q.Window)
	}
	return nil
}

func (q Quota) burst() int {
	switch {
	case q.Burst <= 0:
		return 1
	case q.Burst > q.Requests:
		return q.Requests
	default:
		return q.Burst
	}
}

// refill is the steady-state token rate.
func (q Quota) refill() rate.Limit {
	return rate.Every(q.Window / time.Duration(q.Requests))
}
