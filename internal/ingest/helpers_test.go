package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/providers/balldontlie"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/validate"
)

const testProvider = "balldontlie"

// scriptedClient returns canned pages per endpoint; each page after the
// first is reached through a numeric cursor.
type scriptedClient struct {
	mu          sync.Mutex
	pages       map[string][][]byte
	err         error
	block       bool
	fromCache   bool
	calls       int
	invalidated []string
}

func (c *scriptedClient) Provider() string { return testProvider }

func (c *scriptedClient) Fetch(ctx context.Context, req providers.Request, tier providers.Tier) (providers.Payload, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.block {
		<-ctx.Done()
		return providers.Payload{}, ctx.Err()
	}
	if c.err != nil {
		return providers.Payload{}, c.err
	}
	pages := c.pages[req.Endpoint]
	idx := 0
	if req.Cursor != "" {
		n, err := strconv.Atoi(req.Cursor)
		if err != nil {
			return providers.Payload{}, err
		}
		idx = n
	}
	if idx >= len(pages) {
		return providers.Payload{}, fmt.Errorf("no page %d for %s", idx, req.Endpoint)
	}
	p := providers.Payload{
		Provider:  testProvider,
		Endpoint:  req.Endpoint,
		Body:      pages[idx],
		FetchedAt: time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC),
		FromCache: c.fromCache,
	}
	if idx+1 < len(pages) {
		p.NextCursor = strconv.Itoa(idx + 1)
	}
	return p, nil
}

func (c *scriptedClient) Invalidate(ctx context.Context, endpoint string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, endpoint)
	return 1, nil
}

func (c *scriptedClient) Invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

func (c *scriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type gameSpec struct {
	id           int64
	home, away   int64
	status       string
	homeScore    *int
	visitorScore *int
}

func intp(v int) *int { return &v }

func scheduled(id, home, away int64) gameSpec {
	return gameSpec{id: id, home: home, away: away, status: "7:30 pm ET"}
}

func final(id, home, away int64, hs, vs int) gameSpec {
	return gameSpec{id: id, home: home, away: away, status: "Final", homeScore: intp(hs), visitorScore: intp(vs)}
}

func teamJSON(id int64) string {
	return fmt.Sprintf(`{"id":%d,"abbreviation":"T%c","city":"City","conference":"East","division":"Atlantic","full_name":"Team %d","name":"Team"}`,
		id, rune('A'+id%26), id)
}

func scoreJSON(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

func gamesPage(date string, specs ...gameSpec) []byte {
	items := make([]string, 0, len(specs))
	for _, g := range specs {
		items = append(items, fmt.Sprintf(
			`{"id":%d,"date":"%s","datetime":"%sT00:30:00Z","season":2023,"status":"%s","period":4,"postseason":false,`+
				`"home_team":%s,"visitor_team":%s,"home_team_score":%s,"visitor_team_score":%s}`,
			g.id, date, date, g.status, teamJSON(g.home), teamJSON(g.away), scoreJSON(g.homeScore), scoreJSON(g.visitorScore)))
	}
	return []byte(`{"data":[` + strings.Join(items, ",") + `],"meta":{"per_page":100}}`)
}

// flakyEntities fails upserts for the listed entity ids.
type flakyEntities struct {
	*store.MemoryStore
	failIDs map[int64]bool
}

func (f *flakyEntities) UpsertGame(ctx context.Context, g games.Game) error {
	if f.failIDs[g.ID] {
		return errors.New("connection reset")
	}
	return f.MemoryStore.UpsertGame(ctx, g)
}

type env struct {
	pipeline  *Pipeline
	client    *scriptedClient
	entities  *store.MemoryStore
	manifests *manifest.MemoryStore
	metrics   *runRecorder
}

type runRecorder struct {
	mu   sync.Mutex
	runs map[string]int
}

func (r *runRecorder) RecordIngestRun(kind, state string, _ time.Duration, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[kind+"/"+state]++
}

func (r *runRecorder) count(kind Kind, state State) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[string(kind)+"/"+string(state)]
}

func newEnv(t *testing.T, client *scriptedClient, entities store.Entities) *env {
	t.Helper()
	mem := store.NewMemoryStore()
	if entities == nil {
		entities = mem
	}
	manifests := manifest.NewMemoryStore()
	rec := &runRecorder{runs: map[string]int{}}
	p, err := New(Config{
		Source: providers.Source{
			Client:     client,
			Normalizer: balldontlie.NewNormalizer("UTC"),
			MaxPages:   5,
		},
		Tier:      providers.TierFree,
		Validator: validate.New(validate.DefaultTeamCount, nil),
		Entities:  entities,
		Manifests: manifests,
		Metrics:   rec,
	})
	require.NoError(t, err)
	return &env{pipeline: p, client: client, entities: mem, manifests: manifests, metrics: rec}
}

func states(res Result) []State {
	out := make([]State, 0, len(res.Transitions))
	for _, tr := range res.Transitions {
		out = append(out, tr.State)
	}
	return out
}
