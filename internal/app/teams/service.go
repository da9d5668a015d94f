package teams

import (
	"context"

	"nba-ingest-service/internal/domain/teams"
	"nba-ingest-service/internal/store"
)

// Service answers team queries from the entity store.
type Service struct {
	store store.TeamStore
}

// NewService constructs a Service with the provided store.
func NewService(s store.TeamStore) *Service {
	return &Service{store: s}
}

// Teams returns every stored team, historical franchises included.
func (s *Service) Teams(ctx context.Context) ([]teams.Team, error) {
	return s.store.ListTeams(ctx)
}

// ActiveTeams returns the current franchises only.
func (s *Service) ActiveTeams(ctx context.Context) ([]teams.Team, error) {
	all, err := s.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]teams.Team, 0, len(all))
	for _, t := range all {
		if t.Current() {
			out = append(out, t)
		}
	}
	return out, nil
}

// TeamByID returns a single team; store.ErrNotFound when absent.
func (s *Service) TeamByID(ctx context.Context, id int64) (teams.Team, error) {
	return s.store.GetTeam(ctx, id)
}
