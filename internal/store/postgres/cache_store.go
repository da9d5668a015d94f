package postgres

import (
	"context"
	"fmt"
	"time"

	"nba-ingest-service/internal/cache"
)

// CacheStore implements cache.Store using PostgreSQL so cached responses
// survive restarts.
type CacheStore struct {
	pool *Pool
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(pool *Pool) *CacheStore {
	return &CacheStore{pool: pool}
}

// Compile-time interface check.
var _ cache.Store = (*CacheStore)(nil)

func (s *CacheStore) Get(ctx context.Context, id string) (cache.Entry, bool, error) {
	query := `
		SELECT id, provider, endpoint, canonical, payload, fetched_at, ttl_ms
		FROM response_cache
		WHERE id = $1
	`
	var (
		e     cache.Entry
		ttlMS int64
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Provider, &e.Endpoint, &e.Canonical, &e.Payload, &e.FetchedAt, &ttlMS,
	)
	if err != nil {
		if isNotFoundError(err) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	e.TTL = time.Duration(ttlMS) * time.Millisecond
	return e, true, nil
}

func (s *CacheStore) Put(ctx context.Context, e cache.Entry) error {
	query := `
		INSERT INTO response_cache (
			id, provider, endpoint, canonical, payload, fetched_at, ttl_ms, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			fetched_at = EXCLUDED.fetched_at,
			ttl_ms = EXCLUDED.ttl_ms,
			expires_at = EXCLUDED.expires_at
	`
	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Provider, e.Endpoint, e.Canonical, e.Payload,
		e.FetchedAt.UTC(), e.TTL.Milliseconds(), e.ExpiresAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (s *CacheStore) DeleteEndpoint(ctx context.Context, provider, endpoint string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM response_cache WHERE provider = $1 AND endpoint = $2`,
		provider, endpoint,
	)
	if err != nil {
		return 0, fmt.Errorf("delete cache endpoint: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM response_cache WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
