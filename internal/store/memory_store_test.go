package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
)

func intPtr(v int) *int { return &v }

func TestMemoryStoreTeams(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for _, tm := range []teams.Team{{ID: 2, Name: "Celtics"}, {ID: 1, Name: "Hawks"}} {
		if err := s.UpsertTeam(ctx, tm); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	list, err := s.ListTeams(ctx)
	if err != nil || len(list) != 2 || list[0].ID != 1 {
		t.Fatalf("expected 2 teams ordered by id, got %+v err %v", list, err)
	}
	if !list[0].UpdatedAt.Equal(fixed) {
		t.Fatalf("expected updatedAt stamped, got %s", list[0].UpdatedAt)
	}

	if err := s.UpsertTeam(ctx, teams.Team{ID: 1, Name: "Hawks II"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTeam(ctx, 1)
	if err != nil || got.Name != "Hawks II" {
		t.Fatalf("expected superseded team, got %+v err %v", got, err)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.GetTeam(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetGame(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetSeasonStat(ctx, 1, 2023); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreGamesByRange(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, g := range []games.Game{
		{ID: 3, Date: "2024-01-02"},
		{ID: 1, Date: "2024-01-01"},
		{ID: 2, Date: "2024-01-01"},
		{ID: 4, Date: "2024-01-05"},
	} {
		if err := s.UpsertGame(ctx, g); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListGames(ctx, "2024-01-01", "2024-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != 1 || list[1].ID != 2 || list[2].ID != 3 {
		t.Fatalf("unexpected games %+v", list)
	}
}

func TestMemoryStoreGameUpsertEvolvesStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.UpsertGame(ctx, games.Game{ID: 1, Date: "2024-01-01", Status: games.StatusScheduled}); err != nil {
		t.Fatal(err)
	}
	score := intPtr(101)
	if err := s.UpsertGame(ctx, games.Game{ID: 1, Date: "2024-01-01", Status: games.StatusFinal, HomeScore: score, VisitorScore: intPtr(99)}); err != nil {
		t.Fatal(err)
	}
	*score = 0
	g, err := s.GetGame(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != games.StatusFinal || *g.HomeScore != 101 {
		t.Fatalf("expected final game with stored copy of score, got %+v", g)
	}
}

func TestMemoryStoreSeasonStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, st := range []stats.SeasonStat{
		{TeamID: 2, Season: 2023, Pace: 99},
		{TeamID: 1, Season: 2023, Pace: 98},
		{TeamID: 1, Season: 2022, Pace: 97},
	} {
		if err := s.UpsertSeasonStat(ctx, st); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.UpsertSeasonStat(ctx, stats.SeasonStat{TeamID: 1, Season: 2023, Pace: 100}); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListSeasonStats(ctx, 2023)
	if err != nil || len(list) != 2 || list[0].TeamID != 1 || list[0].Pace != 100 {
		t.Fatalf("expected refreshed 2023 stats, got %+v err %v", list, err)
	}
}

func TestMemoryStoreRejectsCanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.UpsertTeam(ctx, teams.Team{ID: 1}); err == nil {
		t.Fatal("expected context error")
	}
}
