package games

import (
	"context"
	"errors"
	"testing"

	domaingames "nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/store"
)

type stubStore struct {
	listResult []domaingames.Game
	listErr    error
	start, end string
}

func (s *stubStore) UpsertGame(ctx context.Context, g domaingames.Game) error { return nil }

func (s *stubStore) GetGame(ctx context.Context, id int64) (domaingames.Game, error) {
	for _, g := range s.listResult {
		if g.ID == id {
			return g, nil
		}
	}
	return domaingames.Game{}, store.ErrNotFound
}

func (s *stubStore) ListGames(ctx context.Context, start, end string) ([]domaingames.Game, error) {
	s.start, s.end = start, end
	return s.listResult, s.listErr
}

func TestServiceRangeSingleDay(t *testing.T) {
	st := &stubStore{listResult: []domaingames.Game{{ID: 1}, {ID: 2}}}
	svc := NewService(st)

	resp, err := svc.Range(context.Background(), "2024-01-15", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Start != "2024-01-15" || resp.End != "2024-01-15" {
		t.Fatalf("unexpected range %s..%s", resp.Start, resp.End)
	}
	if len(resp.Games) != 2 || st.end != "2024-01-15" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestServiceRangeRejectsBadInput(t *testing.T) {
	svc := NewService(&stubStore{})
	cases := [][2]string{
		{"bad", ""},
		{"2024-01-15", "2024-01-10"},
		{"2024-01-01", "2024-06-01"},
	}
	for _, c := range cases {
		if _, err := svc.Range(context.Background(), c[0], c[1]); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange for %v, got %v", c, err)
		}
	}
}

func TestServiceRangeEmptyIsNotNil(t *testing.T) {
	svc := NewService(&stubStore{})
	resp, err := svc.Range(context.Background(), "2024-01-15", "2024-01-16")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Games == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestServicePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&stubStore{listErr: boom})
	if _, err := svc.Range(context.Background(), "2024-01-15", ""); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestServiceGameByID(t *testing.T) {
	svc := NewService(&stubStore{listResult: []domaingames.Game{{ID: 7}}})
	g, err := svc.GameByID(context.Background(), 7)
	if err != nil || g.ID != 7 {
		t.Fatalf("expected game 7, got %+v err %v", g, err)
	}
	if _, err := svc.GameByID(context.Background(), 8); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
