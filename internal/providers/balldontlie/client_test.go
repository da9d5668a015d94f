package balldontlie

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"nba-ingest-service/internal/providers"
)

func response(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     header,
	}
}

func TestTransportDoBuildsRequest(t *testing.T) {
	var captured *http.Request
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		h := make(http.Header)
		h.Set(headerSchemaVersion, "2024-01")
		return response(http.StatusOK, `{"data":[],"meta":{"next_cursor":25}}`, h), nil
	})
	tr := NewTransport(Config{BaseURL: "http://example.com/", APIKey: "secret", HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointGames)

	resp, err := tr.Do(context.Background(), ep, map[string][]string{"dates[]": {"2024-01-01"}, "cursor": {"10"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if captured.URL.Path != "/games" {
		t.Fatalf("expected /games path, got %s", captured.URL.Path)
	}
	if captured.Header.Get("Authorization") != "Bearer secret" {
		t.Fatalf("expected authorization header, got %s", captured.Header.Get("Authorization"))
	}
	q, err := url.ParseQuery(captured.URL.RawQuery)
	if err != nil {
		t.Fatal(err)
	}
	if q.Get("per_page") != "100" || q.Get("dates[]") != "2024-01-01" || q.Get("cursor") != "10" {
		t.Fatalf("unexpected query %v", q)
	}
	if resp.SchemaVersion != "2024-01" {
		t.Fatalf("expected schema version, got %q", resp.SchemaVersion)
	}
	cursor, err := tr.NextCursor(resp.Body)
	if err != nil || cursor != "25" {
		t.Fatalf("expected cursor 25, got %q err %v", cursor, err)
	}
}

func TestTransportDoOmitsPerPageForUnpaginatedEndpoints(t *testing.T) {
	var rawQuery string
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		rawQuery = req.URL.RawQuery
		return response(http.StatusOK, `{"data":[]}`, nil), nil
	})
	tr := NewTransport(Config{BaseURL: "http://example.com", HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)
	if _, err := tr.Do(context.Background(), ep, nil); err != nil {
		t.Fatal(err)
	}
	if rawQuery != "" {
		t.Fatalf("expected empty query, got %q", rawQuery)
	}
}

func TestTransportDoMapsRateLimit(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		h := make(http.Header)
		h.Set(headerRetryAfter, "2")
		h.Set(headerRemaining, "0")
		return response(http.StatusTooManyRequests, "slow down", h), nil
	})
	tr := NewTransport(Config{HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)

	_, err := tr.Do(context.Background(), ep, nil)
	rl, ok := providers.AsRateLimitError(err)
	if !ok {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if rl.RetryAfter.Seconds() != 2 || rl.Remaining != "0" || rl.Message != "slow down" {
		t.Fatalf("unexpected rate limit error %+v", rl)
	}
}

func TestTransportDoHandlesNon200(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusBadGateway, "boom", nil), nil
	})
	tr := NewTransport(Config{HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)

	_, err := tr.Do(context.Background(), ep, nil)
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway || statusErr.Body != "boom" {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTransportDoRejectsOversizedBody(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, strings.Repeat("x", maxBodyBytes+1), nil), nil
	})
	tr := NewTransport(Config{HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)

	resp, err := tr.Do(context.Background(), ep, nil)
	if !errors.Is(err, errBodyTooLarge) {
		t.Fatalf("expected body too large error, got %v", err)
	}
	if resp.Body != nil {
		t.Fatalf("expected no truncated body, got %d bytes", len(resp.Body))
	}
}

func TestTransportDoAcceptsBodyAtLimit(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, strings.Repeat("x", maxBodyBytes), nil), nil
	})
	tr := NewTransport(Config{HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)

	resp, err := tr.Do(context.Background(), ep, nil)
	if err != nil || len(resp.Body) != maxBodyBytes {
		t.Fatalf("expected full body, got %d bytes err %v", len(resp.Body), err)
	}
}

func TestTransportDoReturnsNetworkError(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: refused")
	})
	tr := NewTransport(Config{HTTPClient: &http.Client{Transport: rt}})
	ep, _ := tr.Catalog().Lookup(providers.EndpointTeams)
	if _, err := tr.Do(context.Background(), ep, nil); err == nil {
		t.Fatal("expected network error")
	}
}

func TestNextCursorAbsentEndsPagination(t *testing.T) {
	tr := NewTransport(Config{})
	cursor, err := tr.NextCursor([]byte(`{"data":[],"meta":{"per_page":100}}`))
	if err != nil || cursor != "" {
		t.Fatalf("expected empty cursor, got %q err %v", cursor, err)
	}
	if _, err := tr.NextCursor([]byte(`{bad json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCatalogTiers(t *testing.T) {
	c := Catalog()
	cases := map[string]providers.Tier{
		providers.EndpointTeams:              providers.TierFree,
		providers.EndpointGames:              providers.TierFree,
		providers.EndpointTeamSeasonAverages: providers.TierGOAT,
	}
	if got := len(c); got != len(cases) {
		t.Fatalf("expected %d catalogued endpoints, got %d", len(cases), got)
	}
	for name, tier := range cases {
		ep, ok := c.Lookup(name)
		if !ok || ep.MinTier != tier {
			t.Fatalf("endpoint %s: expected tier %s, got %+v", name, tier, ep)
		}
	}
}

func TestNewTransportSetsDefaultHTTPClient(t *testing.T) {
	c := NewTransport(Config{})
	httpClient, ok := c.httpClient.(*http.Client)
	if !ok {
		t.Fatalf("expected default http client")
	}
	if httpClient.Timeout == 0 {
		t.Fatalf("expected timeout to be set on default http client")
	}
}

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
