package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"nba-ingest-service/internal/ratelimit"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
	defaultMaxBackoff    = 5 * time.Second
)

// RetryPolicy bounds retries of transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultRetryAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = defaultBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	return p
}

type backoffFunc func() time.Duration

// newBackoff returns an exponential schedule with jitter. Each call to the
// returned func yields the next delay.
func (p RetryPolicy) newBackoff() backoffFunc {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseBackoff
	b.MaxInterval = p.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return func() time.Duration {
		d := b.NextBackOff()
		if d == backoff.Stop {
			return p.MaxBackoff
		}
		return d
	}
}

// retryable classifies an attempt error.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrTierRequired), errors.Is(err, ratelimit.ErrTimeout):
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	return true
}

// insufficientTier reports upstream responses that mean the subscription
// cannot reach the endpoint. 401 is a credential problem and stays a
// *StatusError.
func insufficientTier(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusForbidden
}

// retryDelay prefers the provider's Retry-After over the computed backoff.
func retryDelay(err error, next time.Duration) time.Duration {
	if rl, ok := AsRateLimitError(err); ok && rl.RetryAfter > next {
		return rl.RetryAfter
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
