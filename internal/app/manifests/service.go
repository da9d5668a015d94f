// Package manifests exposes the ingest audit log for operators and for
// consumers that need to know when data was observed.
package manifests

import (
	"context"

	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/timeutil"
)

// Service answers manifest queries.
type Service struct {
	store manifest.Store
}

// NewService constructs a Service with the provided store.
func NewService(s manifest.Store) *Service {
	return &Service{store: s}
}

// ByHash returns one manifest; manifest.ErrNotFound when absent.
func (s *Service) ByHash(ctx context.Context, hash string) (manifest.Manifest, error) {
	return s.store.Get(ctx, hash)
}

// ByDate lists manifests created on a UTC date.
func (s *Service) ByDate(ctx context.Context, date string) ([]manifest.Manifest, error) {
	if _, err := timeutil.ParseDate(date); err != nil {
		return nil, err
	}
	return s.store.ListByDate(ctx, date)
}

// ByUnit lists every manifest for a unit id in append order.
func (s *Service) ByUnit(ctx context.Context, unitID string) ([]manifest.Manifest, error) {
	return s.store.ListByUnit(ctx, unitID)
}

// Latest returns the chain head.
func (s *Service) Latest(ctx context.Context) (manifest.Manifest, error) {
	return s.store.Latest(ctx)
}

// Verify checks the whole chain.
func (s *Service) Verify(ctx context.Context) error {
	return manifest.Verify(ctx, s.store)
}
