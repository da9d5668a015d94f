package providers

import (
	"context"
	"time"

	"nba-ingest-service/internal/contracts"
)

// CursorParam carries the continuation cursor inside request parameters.
const CursorParam = "cursor"

// Request asks a provider for one page of an endpoint.
type Request struct {
	Endpoint     string
	Params       map[string][]string
	Cursor       string
	ForceRefresh bool
	// TTLClass overrides the endpoint's cache class when set.
	TTLClass string
}

func (r Request) ttlClass(ep Endpoint) string {
	if r.TTLClass != "" {
		return r.TTLClass
	}
	return ep.TTLClass
}

// params merges the cursor into a copy of the request parameters.
func (r Request) params() map[string][]string {
	out := make(map[string][]string, len(r.Params)+1)
	for k, v := range r.Params {
		out[k] = append([]string(nil), v...)
	}
	if r.Cursor != "" {
		out[CursorParam] = []string{r.Cursor}
	}
	return out
}

// Payload is one raw page together with its provenance.
type Payload struct {
	Provider   string
	Endpoint   string
	Params     map[string][]string
	Body       []byte
	FetchedAt  time.Time
	FromCache  bool
	NextCursor string
	Attempts   int
}

// Client fetches raw pages with tier gating, caching, rate limiting and retries.
type Client interface {
	Provider() string
	Fetch(ctx context.Context, req Request, tier Tier) (Payload, error)
}

// Invalidator is implemented by clients that can drop cached pages, so a
// page that later fails to normalize is not served again.
type Invalidator interface {
	Invalidate(ctx context.Context, endpoint string) (int, error)
}

// Response is a raw upstream body. SchemaVersion is empty when the provider
// does not report one.
type Response struct {
	Body          []byte
	SchemaVersion string
}

// Transport performs single upstream calls. Implementations report HTTP 429
// as *RateLimitError and other non-success statuses as *StatusError.
type Transport interface {
	Name() string
	Catalog() Catalog
	Do(ctx context.Context, ep Endpoint, params map[string][]string) (Response, error)
	NextCursor(body []byte) (string, error)
}

// Normalizer maps unit-of-work scopes onto requests and raw pages onto
// contract records.
type Normalizer interface {
	TeamsRequest() Request
	GamesRequest(date string) Request
	SeasonStatsRequest(season int) Request
	Teams(pages [][]byte) (contracts.Batch[contracts.TeamRecord], error)
	Games(pages [][]byte) (contracts.Batch[contracts.GameRecord], error)
	SeasonStats(pages [][]byte) (contracts.Batch[contracts.SeasonStatRecord], error)
}

// Source is everything the ingest pipeline needs from one provider.
type Source struct {
	Client     Client
	Normalizer Normalizer
	MaxPages   int
}
