package games

import (
	"context"
	"errors"
	"fmt"

	domaingames "nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/timeutil"
)

// ErrInvalidRange is returned for malformed or oversized date ranges.
var ErrInvalidRange = errors.New("invalid date range")

// Service answers game queries from the entity store.
type Service struct {
	store store.GameStore
}

// NewService constructs a Service with the provided store.
func NewService(s store.GameStore) *Service {
	return &Service{store: s}
}

// GameByID returns a single game; store.ErrNotFound when absent.
func (s *Service) GameByID(ctx context.Context, id int64) (domaingames.Game, error) {
	return s.store.GetGame(ctx, id)
}

// Range returns games between start and end inclusive. An empty end means a
// single day.
func (s *Service) Range(ctx context.Context, start, end string) (domaingames.RangeResponse, error) {
	if end == "" {
		end = start
	}
	if _, err := timeutil.DateRange(start, end); err != nil {
		return domaingames.RangeResponse{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	items, err := s.store.ListGames(ctx, start, end)
	if err != nil {
		return domaingames.RangeResponse{}, err
	}
	return domaingames.NewRangeResponse(start, end, items), nil
}
