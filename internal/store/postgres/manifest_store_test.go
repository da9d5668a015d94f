package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-ingest-service/internal/manifest"
)

func sampleManifest(hash, unit string, at time.Time) manifest.Manifest {
	return manifest.Manifest{
		Hash:      hash,
		UnitID:    unit,
		UnitKind:  "games",
		Provider:  "fixture",
		CreatedAt: at,
		Counts:    manifest.Counts{Fetched: 3, Normalized: 3, Accepted: 2, Rejected: 1},
		Errors:    []string{"game:7: home_score: min"},
		EntityIDs: []string{"game:1", "game:2"},
	}
}

func TestManifestStore_AppendChainsRecords(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewManifestStore(pool)
	ctx := context.Background()
	at := time.Date(2024, 1, 15, 12, 0, 0, 123456789, time.UTC)

	first, err := s.Append(ctx, sampleManifest("h1", "fixture/games/2024-01-15", at))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Empty(t, first.PrevRecordHash)

	second, err := s.Append(ctx, sampleManifest("h2", "fixture/games/2024-01-16", at.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, first.RecordHash, second.PrevRecordHash)

	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.NoError(t, manifest.VerifyChain(all))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h2", latest.Hash)

	byUnit, err := s.ListByUnit(ctx, "fixture/games/2024-01-16")
	require.NoError(t, err)
	require.Len(t, byUnit, 1)

	byDate, err := s.ListByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
}

func TestManifestStore_DuplicateHash(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewManifestStore(pool)
	ctx := context.Background()

	_, err := s.Append(ctx, sampleManifest("dup", "fixture/teams/league", time.Now()))
	require.NoError(t, err)

	_, err = s.Append(ctx, sampleManifest("dup", "fixture/teams/league", time.Now()))
	assert.ErrorIs(t, err, manifest.ErrDuplicate)

	ok, err := s.Has(ctx, "dup")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestManifestStore_RowsAreAppendOnly(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewManifestStore(pool)
	ctx := context.Background()

	_, err := s.Append(ctx, sampleManifest("h1", "fixture/teams/league", time.Now()))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE manifests SET unit_id = 'tampered' WHERE hash = 'h1'`)
	assert.Error(t, err)

	_, err = pool.Exec(ctx, `DELETE FROM manifests WHERE hash = 'h1'`)
	assert.Error(t, err)
}
