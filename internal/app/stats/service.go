package stats

import (
	"context"

	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/store"
)

// Service answers season aggregate queries.
type Service struct {
	store store.StatStore
}

// NewService constructs a Service with the provided store.
func NewService(s store.StatStore) *Service {
	return &Service{store: s}
}

// Season returns every team's aggregate for season.
func (s *Service) Season(ctx context.Context, season int) ([]stats.SeasonStat, error) {
	return s.store.ListSeasonStats(ctx, season)
}

// TeamSeason returns one team's aggregate; store.ErrNotFound when absent.
func (s *Service) TeamSeason(ctx context.Context, teamID int64, season int) (stats.SeasonStat, error) {
	return s.store.GetSeasonStat(ctx, teamID, season)
}
