package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
)

// MemoryStore keeps entities in memory behind a RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	teams map[int64]teams.Team
	games map[int64]games.Game
	stats map[stats.Key]stats.SeasonStat
	now   func() time.Time
}

var _ Entities = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams: make(map[int64]teams.Team),
		games: make(map[int64]games.Game),
		stats: make(map[stats.Key]stats.SeasonStat),
		now:   time.Now,
	}
}

func (s *MemoryStore) UpsertTeam(ctx context.Context, t teams.Team) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = s.now().UTC()
	s.teams[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id int64) (teams.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return teams.Team{}, ErrNotFound
	}
	return t, nil
}

// ListTeams returns teams ordered by id.
func (s *MemoryStore) ListTeams(ctx context.Context) ([]teams.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]teams.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertGame(ctx context.Context, g games.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.UpdatedAt = s.now().UTC()
	g.HomeScore = copyInt(g.HomeScore)
	g.VisitorScore = copyInt(g.VisitorScore)
	s.games[g.ID] = g
	return nil
}

func (s *MemoryStore) GetGame(ctx context.Context, id int64) (games.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return games.Game{}, ErrNotFound
	}
	return g, nil
}

// ListGames returns games in the range ordered by date then id.
func (s *MemoryStore) ListGames(ctx context.Context, start, end string) ([]games.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]games.Game, 0)
	for _, g := range s.games {
		if g.Date >= start && g.Date <= end {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpsertSeasonStat(ctx context.Context, st stats.SeasonStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = s.now().UTC()
	s.stats[st.Key()] = st
	return nil
}

func (s *MemoryStore) GetSeasonStat(ctx context.Context, teamID int64, season int) (stats.SeasonStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[stats.Key{TeamID: teamID, Season: season}]
	if !ok {
		return stats.SeasonStat{}, ErrNotFound
	}
	return st, nil
}

// ListSeasonStats returns one season ordered by team id.
func (s *MemoryStore) ListSeasonStats(ctx context.Context, season int) ([]stats.SeasonStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stats.SeasonStat, 0)
	for k, st := range s.stats {
		if k.Season == season {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
