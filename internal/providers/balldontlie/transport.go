package balldontlie

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"nba-ingest-service/internal/providers"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func resolveHTTPClient(client *http.Client) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func normalizeBaseURL(raw string) string {
	if raw == "" {
		raw = defaultBaseURL
	}
	return strings.TrimSuffix(raw, "/")
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		name = defaultTimezone
	}
	if loc := providers.ResolveTimezone(name); loc != nil {
		return loc
	}
	return time.UTC
}

func resolveMaxPages(max int) int {
	if max <= 0 {
		return defaultMaxPages
	}
	return max
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
