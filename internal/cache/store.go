package cache

import (
	"context"
	"time"
)

// Entry is a cached provider response.
type Entry struct {
	ID        string
	Provider  string
	Endpoint  string
	Canonical string
	Payload   []byte
	FetchedAt time.Time
	TTL       time.Duration
}

// ExpiresAt is the instant after which the entry must not be served.
func (e Entry) ExpiresAt() time.Time {
	return e.FetchedAt.Add(e.TTL)
}

// Fresh reports whether the entry may still be served at now.
func (e Entry) Fresh(now time.Time) bool {
	return e.TTL > 0 && now.Before(e.ExpiresAt())
}

// Store persists cache entries. Implementations must be safe for concurrent
// use and last-write-wins per ID.
type Store interface {
	Get(ctx context.Context, id string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	DeleteEndpoint(ctx context.Context, provider, endpoint string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
