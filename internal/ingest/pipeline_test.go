package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/validate"
)

const day = "2024-01-15"

func fiveScheduled() []byte {
	return gamesPage(day,
		scheduled(1, 1, 2), scheduled(2, 3, 4), scheduled(3, 5, 6),
		scheduled(4, 7, 8), scheduled(5, 9, 10))
}

func TestRunPersistsGamesAndSkipsIdenticalReplay(t *testing.T) {
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {fiveScheduled()}}}
	e := newEnv(t, client, nil)
	ctx := context.Background()
	unit := GamesUnit(testProvider, day)

	res, err := e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)
	require.Equal(t, StateDone, res.State)
	require.Equal(t, []State{StateFetching, StateNormalizing, StateValidating, StatePersisting, StateDone}, states(res))
	require.Equal(t, manifest.Counts{Fetched: 5, Normalized: 5, Accepted: 5}, res.Counts)
	require.Len(t, res.EntityIDs, 5)
	require.NotEmpty(t, res.TransactionID)
	require.NotNil(t, res.Manifest)
	require.Equal(t, res.Hash, res.Manifest.Hash)
	require.Equal(t, "balldontlie/games/2024-01-15", res.Manifest.UnitID)

	stored, err := e.entities.ListGames(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for _, g := range stored {
		require.True(t, g.ObservedAt.Equal(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)))
	}

	replay, err := e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)
	require.True(t, replay.Skipped)
	require.Equal(t, StateDone, replay.State)
	require.Equal(t, []State{StateFetching, StateDone}, states(replay))
	require.Equal(t, res.Hash, replay.Hash)

	all, err := e.manifests.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 2, e.metrics.count(KindGames, StateDone))
}

func TestRunChangedInputWritesNewManifest(t *testing.T) {
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {fiveScheduled()}}}
	e := newEnv(t, client, nil)
	ctx := context.Background()
	unit := GamesUnit(testProvider, day)

	_, err := e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)

	client.pages[providers.EndpointGames] = [][]byte{gamesPage(day,
		final(1, 1, 2, 101, 99), scheduled(2, 3, 4), scheduled(3, 5, 6),
		scheduled(4, 7, 8), scheduled(5, 9, 10))}
	res, err := e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)
	require.False(t, res.Skipped)

	g, err := e.entities.GetGame(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "final", string(g.Status))
	require.Equal(t, 101, *g.HomeScore)

	all, err := e.manifests.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NoError(t, manifest.VerifyChain(all))
}

func TestRunDropsGameWithNegativeScore(t *testing.T) {
	page := gamesPage(day,
		final(1, 1, 2, 100, 90), final(2, 3, 4, 110, 95), final(3, 5, 6, -3, 88),
		final(4, 7, 8, 99, 97), final(5, 9, 10, 120, 111))
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {page}}}
	e := newEnv(t, client, nil)

	res, err := e.pipeline.Run(context.Background(), GamesUnit(testProvider, day), Options{})
	require.NoError(t, err)
	require.Equal(t, StateDone, res.State)
	require.Equal(t, 4, res.Counts.Accepted)
	require.Equal(t, 1, res.Counts.Rejected)
	require.Len(t, res.Rejections, 1)
	require.Equal(t, "game:3", res.Rejections[0].Ref)
	require.Equal(t, validate.PassSanity, res.Rejections[0].Pass)

	require.NotNil(t, res.Manifest)
	require.Len(t, res.Manifest.Errors, 1)
	require.True(t, strings.HasPrefix(res.Manifest.Errors[0], "game:3"))

	_, err = e.entities.GetGame(context.Background(), 3)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunRejectsBatchWithDuplicateIDs(t *testing.T) {
	page := gamesPage(day, scheduled(1, 1, 2), scheduled(2, 3, 4), scheduled(1, 5, 6))
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {page}}}
	e := newEnv(t, client, nil)
	ctx := context.Background()

	res, err := e.pipeline.Run(ctx, GamesUnit(testProvider, day), Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, validate.ErrSanity)
	runErr, ok := AsRunError(err)
	require.True(t, ok)
	require.Equal(t, StateValidating, runErr.Stage)
	require.Equal(t, StateFailed, res.State)
	require.True(t, res.BatchRejected)
	require.Zero(t, res.Counts.Accepted)
	require.Equal(t, 3, res.Counts.Rejected)

	stored, err := e.entities.ListGames(ctx, day, day)
	require.NoError(t, err)
	require.Empty(t, stored)

	m, err := e.manifests.Get(ctx, res.Hash)
	require.NoError(t, err)
	require.True(t, m.BatchRejected)
	require.Empty(t, m.TransactionID)
	require.Equal(t, 1, e.metrics.count(KindGames, StateFailed))
}

func TestRunPartialPersistenceIsRecorded(t *testing.T) {
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {fiveScheduled()}}}
	flaky := &flakyEntities{MemoryStore: store.NewMemoryStore(), failIDs: map[int64]bool{2: true}}
	e := newEnv(t, client, flaky)
	ctx := context.Background()

	res, err := e.pipeline.Run(ctx, GamesUnit(testProvider, day), Options{})
	require.NoError(t, err)
	require.Equal(t, StateDone, res.State)
	require.True(t, res.Partial)
	require.Equal(t, 4, res.Counts.Accepted)
	require.Equal(t, 1, res.Counts.PersistFailed)
	require.NotContains(t, res.EntityIDs, "game:2")
	require.NotEmpty(t, res.TransactionID)
	require.True(t, res.Manifest.Partial)
	require.Equal(t, res.EntityIDs, res.Manifest.EntityIDs)

	stored, err := flaky.ListGames(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, stored, 4)
}

func TestRunAllPersistFailuresRecordNoTransaction(t *testing.T) {
	page := gamesPage(day, scheduled(1, 1, 2))
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {page}}}
	flaky := &flakyEntities{MemoryStore: store.NewMemoryStore(), failIDs: map[int64]bool{1: true}}
	e := newEnv(t, client, flaky)

	res, err := e.pipeline.Run(context.Background(), GamesUnit(testProvider, day), Options{})
	require.NoError(t, err)
	require.Zero(t, res.Counts.Accepted)
	require.Empty(t, res.TransactionID)
	require.Empty(t, res.Manifest.TransactionID)
}

func TestRunFetchFailureWritesNoManifest(t *testing.T) {
	unavailable := &providers.ProviderUnavailableError{
		Provider: testProvider, Endpoint: providers.EndpointGames, Attempts: 3,
		Err: &providers.StatusError{Provider: testProvider, StatusCode: 503},
	}
	client := &scriptedClient{err: unavailable}
	e := newEnv(t, client, nil)
	ctx := context.Background()
	unit := GamesUnit(testProvider, day)

	res, err := e.pipeline.Run(ctx, unit, Options{})
	require.ErrorIs(t, err, providers.ErrProviderUnavailable)
	runErr, ok := AsRunError(err)
	require.True(t, ok)
	require.Equal(t, StateFetching, runErr.Stage)
	require.Equal(t, []State{StateFetching, StateFailed}, states(res))

	all, err := e.manifests.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	client.err = nil
	client.pages = map[string][][]byte{providers.EndpointGames: {fiveScheduled()}}
	res, err = e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.Equal(t, 5, res.Counts.Accepted)
}

func TestRunDeadlineExceededDuringFetch(t *testing.T) {
	client := &scriptedClient{block: true}
	e := newEnv(t, client, nil)
	ctx := context.Background()

	res, err := e.pipeline.Run(ctx, GamesUnit(testProvider, day), Options{Deadline: time.Now().Add(20 * time.Millisecond)})
	require.ErrorIs(t, err, ErrDeadlineExceeded)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateFailed, res.State)

	all, err := e.manifests.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	page := gamesPage(day, scheduled(1, 1, 2), final(2, 3, 4, -1, 80))
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {page}}}
	e := newEnv(t, client, nil)
	ctx := context.Background()
	unit := GamesUnit(testProvider, day)

	res, err := e.pipeline.Run(ctx, unit, Options{DryRun: true})
	require.NoError(t, err)
	require.True(t, res.DryRun)
	require.False(t, res.AlreadyIngested)
	require.Equal(t, 1, res.Counts.Accepted)
	require.Equal(t, 1, res.Counts.Rejected)
	require.Nil(t, res.Manifest)
	require.NotContains(t, states(res), StatePersisting)

	stored, err := e.entities.ListGames(ctx, day, day)
	require.NoError(t, err)
	require.Empty(t, stored)

	_, err = e.pipeline.Run(ctx, unit, Options{})
	require.NoError(t, err)

	again, err := e.pipeline.Run(ctx, unit, Options{DryRun: true})
	require.NoError(t, err)
	require.True(t, again.AlreadyIngested)
	require.False(t, again.Skipped)
	require.Equal(t, 1, again.Counts.Accepted)
}

func TestRunFollowsPagesIntoOneHash(t *testing.T) {
	first := gamesPage(day, scheduled(1, 1, 2), scheduled(2, 3, 4))
	second := gamesPage(day, scheduled(3, 5, 6))
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {first, second}}}
	e := newEnv(t, client, nil)

	res, err := e.pipeline.Run(context.Background(), GamesUnit(testProvider, day), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Counts.Fetched)
	require.Equal(t, 2, client.Calls())
	require.Equal(t, manifest.ComputeHash("balldontlie/games/2024-01-15", [][]byte{first, second}), res.Hash)
}

func TestRunRejectsMismatchedOrInvalidUnits(t *testing.T) {
	e := newEnv(t, &scriptedClient{}, nil)
	ctx := context.Background()

	_, err := e.pipeline.Run(ctx, GamesUnit("other", day), Options{})
	require.ErrorIs(t, err, ErrProviderMismatch)

	_, err = e.pipeline.Run(ctx, GamesUnit(testProvider, "15/01/2024"), Options{})
	require.Error(t, err)
	require.Zero(t, e.client.Calls())
}

func TestRunNormalizeFailureIsTyped(t *testing.T) {
	client := &scriptedClient{pages: map[string][][]byte{providers.EndpointGames: {[]byte("not json")}}}
	e := newEnv(t, client, nil)

	res, err := e.pipeline.Run(context.Background(), GamesUnit(testProvider, day), Options{})
	require.Error(t, err)
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	require.Equal(t, StateNormalizing, runErr.Stage)
	require.Equal(t, StateFailed, res.State)
	require.Empty(t, client.Invalidated(), "network pages were never cached by this client")
}

func TestRunNormalizeFailureEvictsCachedPages(t *testing.T) {
	client := &scriptedClient{
		pages:     map[string][][]byte{providers.EndpointTeams: {[]byte(`{"error":"maintenance"`)}},
		fromCache: true,
	}
	e := newEnv(t, client, nil)

	_, err := e.pipeline.Run(context.Background(), TeamsUnit(testProvider), Options{})
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, StateNormalizing, runErr.Stage)
	require.Equal(t, []string{providers.EndpointTeams}, client.Invalidated())
}
