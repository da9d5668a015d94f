package fixture

import (
	"context"
	"testing"
	"time"

	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/providers/balldontlie"
	"nba-ingest-service/internal/validate"
)

var fixed = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func fetch(t *testing.T, tr *Transport, endpoint string, params map[string][]string) []byte {
	t.Helper()
	ep, ok := tr.Catalog().Lookup(endpoint)
	if !ok {
		t.Fatalf("endpoint %s missing", endpoint)
	}
	resp, err := tr.Do(context.Background(), ep, params)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.SchemaVersion != schemaVersion {
		t.Fatalf("unexpected schema version %q", resp.SchemaVersion)
	}
	return resp.Body
}

func TestTeamsPassValidation(t *testing.T) {
	tr := New()
	body := fetch(t, tr, providers.EndpointTeams, nil)

	batch, err := balldontlie.NewNormalizer("").Teams([][]byte{body})
	if err != nil {
		t.Fatal(err)
	}
	res, err := validate.New(30, nil).Teams(batch.Records, fixed)
	if err != nil {
		t.Fatalf("expected fixture league to validate, got %v", err)
	}
	if len(res.Accepted) != 30 {
		t.Fatalf("expected 30 teams, got %d", len(res.Accepted))
	}
}

func TestGamesAreDeterministicAndFinalInThePast(t *testing.T) {
	tr := New()
	tr.now = func() time.Time { return fixed }
	params := map[string][]string{"dates[]": {"2024-01-15"}}

	first := fetch(t, tr, providers.EndpointGames, params)
	second := fetch(t, tr, providers.EndpointGames, params)
	if string(first) != string(second) {
		t.Fatal("expected identical bodies for the same date")
	}

	batch, err := balldontlie.NewNormalizer("").Games([][]byte{first})
	if err != nil {
		t.Fatal(err)
	}
	res, err := validate.New(0, nil).Games(batch.Records, fixed)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Accepted) != gamesPerDay || res.Rejected() != 0 {
		t.Fatalf("expected %d accepted games, got %d (rejections %+v)", gamesPerDay, len(res.Accepted), res.Rejections)
	}
	for _, g := range res.Accepted {
		if g.HomeScore == nil || g.Season != 2023 {
			t.Fatalf("expected final 2023 season game, got %+v", g)
		}
	}
}

func TestFutureGamesAreScheduled(t *testing.T) {
	tr := New()
	tr.now = func() time.Time { return fixed }
	body := fetch(t, tr, providers.EndpointGames, map[string][]string{"dates[]": {"2024-01-25"}})

	batch, err := balldontlie.NewNormalizer("").Games([][]byte{body})
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range batch.Records {
		if rec.Final() || rec.HomeScore != nil {
			t.Fatalf("expected scheduled game without score, got %+v", rec)
		}
	}
}

func TestSeasonAveragesPassValidation(t *testing.T) {
	tr := New()
	body := fetch(t, tr, providers.EndpointTeamSeasonAverages, map[string][]string{"season": {"2023"}})

	batch, err := balldontlie.NewNormalizer("").SeasonStats([][]byte{body})
	if err != nil {
		t.Fatal(err)
	}
	res, err := validate.New(0, nil).SeasonStats(batch.Records, fixed)
	if err != nil || len(res.Accepted) != 30 {
		t.Fatalf("expected 30 stats, got %d err %v", len(res.Accepted), err)
	}
}

func TestInvalidDateIsClientError(t *testing.T) {
	tr := New()
	ep, _ := tr.Catalog().Lookup(providers.EndpointGames)
	_, err := tr.Do(context.Background(), ep, map[string][]string{"dates[]": {"tomorrow"}})
	statusErr, ok := err.(*providers.StatusError)
	if !ok || statusErr.Transient() {
		t.Fatalf("expected non-transient status error, got %v", err)
	}
}
