package cache

import (
	"context"
	"log/slog"
	"time"

	"nba-ingest-service/internal/logging"
)

// ResponseCache serves provider payloads until their TTL lapses. Expiry is
// lazy: stale entries are skipped on read and only removed by Sweep.
type ResponseCache struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New wraps store; a nil store means an in-memory one.
func New(store Store, logger *slog.Logger) *ResponseCache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &ResponseCache{store: store, logger: logger, now: time.Now}
}

// Get returns the payload and its fetch time when a fresh entry exists.
// Store failures degrade to a miss.
func (c *ResponseCache) Get(ctx context.Context, key Key) ([]byte, time.Time, bool) {
	e, ok, err := c.store.Get(ctx, key.ID())
	if err != nil {
		logging.Warn(logging.FromContext(ctx, c.logger), "cache read failed",
			slog.String(logging.FieldProvider, key.Provider),
			slog.String(logging.FieldEndpoint, key.Endpoint),
			slog.Any("error", err),
		)
		return nil, time.Time{}, false
	}
	if !ok || !e.Fresh(c.now()) {
		return nil, time.Time{}, false
	}
	return e.Payload, e.FetchedAt, true
}

// Put stores payload under key for ttl. A non-positive ttl disables caching.
func (c *ResponseCache) Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	e := Entry{
		ID:        key.ID(),
		Provider:  key.Provider,
		Endpoint:  key.Endpoint,
		Canonical: key.Canonical(),
		Payload:   payload,
		FetchedAt: c.now(),
		TTL:       ttl,
	}
	if err := c.store.Put(ctx, e); err != nil {
		logging.Warn(logging.FromContext(ctx, c.logger), "cache write failed",
			slog.String(logging.FieldProvider, key.Provider),
			slog.String(logging.FieldEndpoint, key.Endpoint),
			slog.Any("error", err),
		)
	}
}

// Bust drops every entry for an endpoint after a provider schema change.
func (c *ResponseCache) Bust(ctx context.Context, provider, endpoint string) (int, error) {
	n, err := c.store.DeleteEndpoint(ctx, provider, endpoint)
	if err != nil {
		return 0, err
	}
	logging.Info(logging.FromContext(ctx, c.logger), "cache busted",
		slog.String(logging.FieldProvider, provider),
		slog.String(logging.FieldEndpoint, endpoint),
		slog.Int(logging.FieldCount, n),
	)
	return n, nil
}

// Sweep physically removes expired entries.
func (c *ResponseCache) Sweep(ctx context.Context) (int, error) {
	return c.store.DeleteExpired(ctx, c.now())
}

// WithClock replaces the clock used to stamp and expire entries.
func (c *ResponseCache) WithClock(now func() time.Time) *ResponseCache {
	if now != nil {
		c.now = now
	}
	return c
}
