package providers

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownEndpoint is returned for endpoints missing from the catalog.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrProviderUnavailable matches every *ProviderUnavailableError.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrTierRequired matches every *TierRequiredError.
	ErrTierRequired = errors.New("tier required")
	// ErrPageLimit reports that pagination stopped at the configured page cap.
	ErrPageLimit = errors.New("page limit reached")
)

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Remaining  string
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// StatusError is a non-success upstream response that is not a rate limit.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500
}

// TierRequiredError is returned when the caller's tier cannot reach an endpoint.
type TierRequiredError struct {
	Provider     string
	Endpoint     string
	RequiredTier Tier
	CallerTier   Tier
}

func (e *TierRequiredError) Error() string {
	return fmt.Sprintf("%s %s requires tier %s, caller has %s", e.Provider, e.Endpoint, e.RequiredTier, e.CallerTier)
}

func (e *TierRequiredError) Is(target error) bool {
	return target == ErrTierRequired
}

// AsTierRequiredError unwraps a TierRequiredError if present.
func AsTierRequiredError(err error) (*TierRequiredError, bool) {
	var tErr *TierRequiredError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

// ProviderUnavailableError wraps the last transient failure once retries are exhausted.
type ProviderUnavailableError struct {
	Provider string
	Endpoint string
	Attempts int
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s %s unavailable after %d attempts: %v", e.Provider, e.Endpoint, e.Attempts, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}

func (e *ProviderUnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}
