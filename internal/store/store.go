// Package store persists validated entities. Upserts are last-write-wins on
// the natural key and stamp UpdatedAt.
package store

import (
	"context"
	"errors"

	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
)

// ErrNotFound is returned when no entity matches the key.
var ErrNotFound = errors.New("not found")

type TeamStore interface {
	UpsertTeam(ctx context.Context, t teams.Team) error
	GetTeam(ctx context.Context, id int64) (teams.Team, error)
	ListTeams(ctx context.Context) ([]teams.Team, error)
}

type GameStore interface {
	UpsertGame(ctx context.Context, g games.Game) error
	GetGame(ctx context.Context, id int64) (games.Game, error)
	// ListGames returns games dated start..end inclusive (YYYY-MM-DD).
	ListGames(ctx context.Context, start, end string) ([]games.Game, error)
}

type StatStore interface {
	UpsertSeasonStat(ctx context.Context, s stats.SeasonStat) error
	GetSeasonStat(ctx context.Context, teamID int64, season int) (stats.SeasonStat, error)
	ListSeasonStats(ctx context.Context, season int) ([]stats.SeasonStat, error)
}

// Entities groups every entity store.
type Entities interface {
	TeamStore
	GameStore
	StatStore
}
