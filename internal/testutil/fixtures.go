package testutil

import (
	"context"
	"testing"
	"time"

	domaingames "nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
	"nba-ingest-service/internal/store"
)

var fixtureObservedAt = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

// SampleGame returns a scheduled game fixture between teams 1 and 2.
func SampleGame(id int64, date string) domaingames.Game {
	return domaingames.Game{
		ID:            id,
		Date:          date,
		Season:        2023,
		Status:        domaingames.StatusScheduled,
		HomeTeamID:    1,
		VisitorTeamID: 2,
		ObservedAt:    fixtureObservedAt,
	}
}

// SampleFinalGame returns a final game with scores.
func SampleFinalGame(id int64, date string, home, visitor int) domaingames.Game {
	g := SampleGame(id, date)
	g.Status = domaingames.StatusFinal
	g.HomeScore = &home
	g.VisitorScore = &visitor
	return g
}

// SampleTeam returns a current Eastern Conference team fixture.
func SampleTeam(id int64, abbr string) teams.Team {
	return teams.Team{
		ID:           id,
		Name:         abbr,
		FullName:     "Team " + abbr,
		Abbreviation: abbr,
		City:         "City " + abbr,
		Conference:   teams.ConferenceEast,
		Division:     "Atlantic",
		ObservedAt:   fixtureObservedAt,
	}
}

// SampleSeasonStat returns a plausible season aggregate.
func SampleSeasonStat(teamID int64, season int) stats.SeasonStat {
	return stats.SeasonStat{
		TeamID:        teamID,
		Season:        season,
		GamesPlayed:   82,
		WinPct:        0.5,
		NetRating:     1.5,
		Pace:          99.2,
		OffRating:     115.1,
		DefRating:     113.6,
		Off3PARate:    0.39,
		DefOpp3PARate: 0.37,
		ObservedAt:    fixtureObservedAt,
	}
}

// Seed holds entities to preload into a memory store.
type Seed struct {
	Games []domaingames.Game
	Teams []teams.Team
	Stats []stats.SeasonStat
}

// NewSeededStore builds a memory entity store preloaded with seed.
func NewSeededStore(t testing.TB, seed Seed) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	ms := store.NewMemoryStore()
	for _, tm := range seed.Teams {
		if err := ms.UpsertTeam(ctx, tm); err != nil {
			t.Fatalf("seed team %d: %v", tm.ID, err)
		}
	}
	for _, g := range seed.Games {
		if err := ms.UpsertGame(ctx, g); err != nil {
			t.Fatalf("seed game %d: %v", g.ID, err)
		}
	}
	for _, st := range seed.Stats {
		if err := ms.UpsertSeasonStat(ctx, st); err != nil {
			t.Fatalf("seed stat %d/%d: %v", st.TeamID, st.Season, err)
		}
	}
	return ms
}
