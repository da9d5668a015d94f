package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nba-ingest-service/internal/cache"
)

// Acquirer hands out rate limiter slots.
type Acquirer interface {
	Acquire(ctx context.Context, key string) error
}

// Recorder receives provider call telemetry.
type Recorder interface {
	RecordProviderAttempt(provider string, duration time.Duration, err error)
	RecordRateLimit(provider string, retryAfter time.Duration)
	RecordCacheLookup(provider, endpoint string, hit bool)
}

// ClientConfig wires a GatedClient.
type ClientConfig struct {
	Transport Transport
	Cache     *cache.ResponseCache
	Limiter   Acquirer
	TTLs      map[string]time.Duration
	Retry     RetryPolicy
	Metrics   Recorder
	Logger    *slog.Logger
}

// GatedClient is the Client used by ingestion. A nil cache disables caching.
type GatedClient struct {
	transport Transport
	catalog   Catalog
	cache     *cache.ResponseCache
	limiter   Acquirer
	ttls      map[string]time.Duration
	retry     RetryPolicy
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
	backoff   func(RetryPolicy) backoffFunc

	mu      sync.Mutex
	schemas map[string]string
}

// NewClient constructs a GatedClient over the given transport.
func NewClient(cfg ClientConfig) (*GatedClient, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("providers: transport is required")
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("providers: limiter is required")
	}
	return &GatedClient{
		transport: cfg.Transport,
		catalog:   cfg.Transport.Catalog(),
		cache:     cfg.Cache,
		limiter:   cfg.Limiter,
		ttls:      cfg.TTLs,
		retry:     cfg.Retry.withDefaults(),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
		backoff:   RetryPolicy.newBackoff,
		schemas:   make(map[string]string),
	}, nil
}

// Provider returns the transport name.
func (c *GatedClient) Provider() string {
	return c.transport.Name()
}

// Fetch returns one page. Tier gating happens before the cache or the
// limiter is touched; a cache hit never consumes a rate limit slot.
func (c *GatedClient) Fetch(ctx context.Context, req Request, tier Tier) (Payload, error) {
	provider := c.transport.Name()
	ep, ok := c.catalog.Lookup(req.Endpoint)
	if !ok {
		return Payload{}, fmt.Errorf("%s %q: %w", provider, req.Endpoint, ErrUnknownEndpoint)
	}
	if !tier.Allows(ep.MinTier) {
		return Payload{}, &TierRequiredError{Provider: provider, Endpoint: ep.Name, RequiredTier: ep.MinTier, CallerTier: tier}
	}

	params := req.params()
	key := cache.Key{Provider: provider, Endpoint: ep.Name, Params: params}

	if c.cache != nil && !req.ForceRefresh {
		if p, ok := c.cached(ctx, ep, key, params); ok {
			return p, nil
		}
	}

	resp, attempts, err := c.fetchWithRetry(ctx, ep, params, tier)
	if err != nil {
		return Payload{}, err
	}
	p, err := c.payload(ep, params, resp.Body, c.now().UTC(), false, attempts)
	if err != nil {
		return Payload{}, err
	}

	if c.cache != nil {
		c.bustOnSchemaChange(ctx, provider, ep.Name, resp.SchemaVersion)
		c.cache.Put(ctx, key, resp.Body, c.ttls[req.ttlClass(ep)])
	}
	return p, nil
}

// cached serves key from the cache. An entry whose cursor cannot be read is
// treated as a miss so the page is fetched again.
func (c *GatedClient) cached(ctx context.Context, ep Endpoint, key cache.Key, params map[string][]string) (Payload, bool) {
	provider := c.transport.Name()
	body, fetchedAt, hit := c.cache.Get(ctx, key)
	if !hit {
		c.recordCacheLookup(provider, ep.Name, false)
		return Payload{}, false
	}
	p, err := c.payload(ep, params, body, fetchedAt, true, 0)
	if err != nil {
		c.recordCacheLookup(provider, ep.Name, false)
		logWithProvider(ctx, c.logger, slog.LevelWarn, provider, "ignoring undecodable cached response", "endpoint", ep.Name, "err", err)
		return Payload{}, false
	}
	c.recordCacheLookup(provider, ep.Name, true)
	logWithProvider(ctx, c.logger, slog.LevelDebug, provider, "response cache hit", "endpoint", ep.Name)
	return p, true
}

// Invalidate drops every cached page of endpoint.
func (c *GatedClient) Invalidate(ctx context.Context, endpoint string) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.Bust(ctx, c.transport.Name(), endpoint)
}

func (c *GatedClient) payload(ep Endpoint, params map[string][]string, body []byte, fetchedAt time.Time, fromCache bool, attempts int) (Payload, error) {
	p := Payload{
		Provider:  c.transport.Name(),
		Endpoint:  ep.Name,
		Params:    params,
		Body:      body,
		FetchedAt: fetchedAt,
		FromCache: fromCache,
		Attempts:  attempts,
	}
	if ep.Paginated {
		cursor, err := c.transport.NextCursor(body)
		if err != nil {
			return Payload{}, fmt.Errorf("%s %s: read cursor: %w", p.Provider, ep.Name, err)
		}
		p.NextCursor = cursor
	}
	return p, nil
}

func (c *GatedClient) fetchWithRetry(ctx context.Context, ep Endpoint, params map[string][]string, tier Tier) (Response, int, error) {
	provider := c.transport.Name()
	limiterKey := LimiterKey(provider, tier)
	next := c.backoff(c.retry)

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx, limiterKey); err != nil {
			return Response{}, attempt - 1, err
		}

		start := c.now()
		resp, err := c.transport.Do(ctx, ep, params)
		c.recordAttempt(provider, c.now().Sub(start), err)
		if err == nil {
			return resp, attempt, nil
		}
		if insufficientTier(err) && tier < TierGOAT {
			return Response{}, attempt, &TierRequiredError{Provider: provider, Endpoint: ep.Name, RequiredTier: tier + 1, CallerTier: tier}
		}
		if rl, ok := AsRateLimitError(err); ok {
			c.recordRateLimit(provider, rl.RetryAfter)
		}
		if !retryable(err) {
			return Response{}, attempt, err
		}
		lastErr = err

		if attempt == c.retry.MaxAttempts {
			break
		}

		delay := retryDelay(err, next())
		logWithProvider(ctx, c.logger, slog.LevelWarn, provider, "provider fetch retry",
			"endpoint", ep.Name, "attempt", attempt, "max_attempts", c.retry.MaxAttempts, "delay_ms", delay.Milliseconds(), "err", err)
		if err := sleepCtx(ctx, delay); err != nil {
			return Response{}, attempt, err
		}
	}

	logWithProvider(ctx, c.logger, slog.LevelWarn, provider, "provider fetch failed",
		"endpoint", ep.Name, "attempts", c.retry.MaxAttempts, "err", lastErr)
	return Response{}, c.retry.MaxAttempts, &ProviderUnavailableError{Provider: provider, Endpoint: ep.Name, Attempts: c.retry.MaxAttempts, Err: lastErr}
}

// bustOnSchemaChange drops cached pages of an endpoint when the provider
// reports a schema version different from the last one seen.
func (c *GatedClient) bustOnSchemaChange(ctx context.Context, provider, endpoint, version string) {
	if version == "" {
		return
	}
	c.mu.Lock()
	prev, seen := c.schemas[endpoint]
	c.schemas[endpoint] = version
	c.mu.Unlock()
	if !seen || prev == version {
		return
	}
	n, err := c.cache.Bust(ctx, provider, endpoint)
	if err != nil {
		logWithProvider(ctx, c.logger, slog.LevelWarn, provider, "cache bust failed", "endpoint", endpoint, "err", err)
		return
	}
	logWithProvider(ctx, c.logger, slog.LevelInfo, provider, "schema change busted cache",
		"endpoint", endpoint, "from", prev, "to", version, "count", n)
}

func (c *GatedClient) recordAttempt(provider string, d time.Duration, err error) {
	if c.metrics != nil {
		c.metrics.RecordProviderAttempt(provider, d, err)
	}
}

func (c *GatedClient) recordRateLimit(provider string, retryAfter time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordRateLimit(provider, retryAfter)
	}
}

func (c *GatedClient) recordCacheLookup(provider, endpoint string, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(provider, endpoint, hit)
	}
}
