package balldontlie

import "time"

const (
	providerName       = "balldontlie"
	defaultBaseURL     = "https://api.balldontlie.io/v1"
	defaultPerPage     = 100
	defaultHTTPTimeout = 10 * time.Second
	defaultTimezone    = "America/New_York"
	defaultMaxPages    = 5
	maxBodyBytes       = 8 << 20
	errorBodyBytes     = 512

	headerSchemaVersion = "X-Api-Version"
	headerRemaining     = "X-Ratelimit-Remaining"
	headerRetryAfter    = "Retry-After"
)
