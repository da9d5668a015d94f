package balldontlie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nba-ingest-service/internal/providers"
)

// errBodyTooLarge is returned instead of a truncated page.
var errBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)

// Config controls how the balldontlie transport reaches the upstream API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timezone   string
	MaxPages   int
}

// Transport performs single balldontlie calls.
type Transport struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	catalog    providers.Catalog
	now        func() time.Time
}

var _ providers.Transport = (*Transport)(nil)

// NewTransport constructs a balldontlie transport with the provided configuration.
func NewTransport(cfg Config) *Transport {
	return &Transport{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
		catalog:    Catalog(),
		now:        time.Now,
	}
}

// NewSource wires a gated client over the transport with the balldontlie normalizer.
func NewSource(cfg Config, client providers.Client) providers.Source {
	return providers.Source{
		Client:     client,
		Normalizer: NewNormalizer(cfg.Timezone),
		MaxPages:   resolveMaxPages(cfg.MaxPages),
	}
}

func (t *Transport) Name() string { return providerName }

func (t *Transport) Catalog() providers.Catalog { return t.catalog }

// Do issues one GET. 429 becomes *providers.RateLimitError and any other
// non-200 status *providers.StatusError.
func (t *Transport) Do(ctx context.Context, ep providers.Endpoint, params map[string][]string) (providers.Response, error) {
	req, err := t.buildRequest(ctx, ep, params)
	if err != nil {
		return providers.Response{}, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return providers.Response{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return providers.Response{}, &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get(headerRetryAfter), t.now()),
			Remaining:  resp.Header.Get(headerRemaining),
			Message:    strings.TrimSpace(string(body)),
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return providers.Response{}, &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return providers.Response{}, fmt.Errorf("balldontlie: read %s: %w", ep.Name, err)
	}
	if len(body) > maxBodyBytes {
		return providers.Response{}, fmt.Errorf("balldontlie: %s: %w", ep.Name, errBodyTooLarge)
	}
	return providers.Response{Body: body, SchemaVersion: resp.Header.Get(headerSchemaVersion)}, nil
}

// NextCursor reads meta.next_cursor; an absent cursor ends pagination.
func (t *Transport) NextCursor(body []byte) (string, error) {
	var page struct {
		Meta metaResponse `json:"meta"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", fmt.Errorf("balldontlie: decode meta: %w", err)
	}
	if page.Meta.NextCursor == nil {
		return "", nil
	}
	return strconv.FormatInt(*page.Meta.NextCursor, 10), nil
}

func (t *Transport) buildRequest(ctx context.Context, ep providers.Endpoint, params map[string][]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+ep.Path, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if ep.Paginated && q.Get("per_page") == "" {
		q.Set("per_page", strconv.Itoa(defaultPerPage))
	}
	req.URL.RawQuery = q.Encode()

	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}
