package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeHashIsStableAndFramed(t *testing.T) {
	a := ComputeHash("bdl/games/2024-01-01", [][]byte{[]byte("ab"), []byte("c")})
	b := ComputeHash("bdl/games/2024-01-01", [][]byte{[]byte("ab"), []byte("c")})
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	require.NotEqual(t, a, ComputeHash("bdl/games/2024-01-01", [][]byte{[]byte("a"), []byte("bc")}), "page boundaries must matter")
	require.NotEqual(t, a, ComputeHash("bdl/games/2024-01-02", [][]byte{[]byte("ab"), []byte("c")}), "unit id must matter")
}

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"fs":     func(t *testing.T) Store { return NewFSStore(t.TempDir()) },
	}
}

func sample(hash, unit string, at time.Time) Manifest {
	return Manifest{
		Hash:          hash,
		UnitID:        unit,
		UnitKind:      "games",
		Provider:      "fixture",
		CreatedAt:     at,
		Counts:        Counts{Fetched: 3, Normalized: 3, Accepted: 2, Rejected: 1},
		Errors:        []string{"game:3 sanity final without both scores"},
		TransactionID: "tx-1",
		EntityIDs:     []string{"game:1", "game:2"},
	}
}

func TestStores(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Run("append and get", func(t *testing.T) { testAppendAndGet(t, factory(t)) })
			t.Run("duplicate", func(t *testing.T) { testDuplicate(t, factory(t)) })
			t.Run("listing", func(t *testing.T) { testListing(t, factory(t)) })
			t.Run("chain", func(t *testing.T) { testChain(t, factory(t)) })
			t.Run("empty", func(t *testing.T) { testEmpty(t, factory(t)) })
		})
	}
}

func testAppendAndGet(t *testing.T, s Store) {
	ctx := context.Background()
	at := time.Date(2024, 1, 15, 10, 0, 0, 123456789, time.UTC)

	sealed, err := s.Append(ctx, sample("h1", "fixture/games/2024-01-15", at))
	require.NoError(t, err)
	require.Equal(t, int64(1), sealed.Seq)
	require.Empty(t, sealed.PrevRecordHash)
	require.NotEmpty(t, sealed.RecordHash)
	require.Equal(t, at.Truncate(time.Microsecond), sealed.CreatedAt)

	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, sealed.RecordHash, got.RecordHash)
	require.Equal(t, []string{"game:1", "game:2"}, got.EntityIDs)
	require.Equal(t, 2, got.Counts.Accepted)

	ok, err := s.Has(ctx, "h1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Has(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func testDuplicate(t *testing.T, s Store) {
	ctx := context.Background()
	_, err := s.Append(ctx, sample("h1", "u", time.Now()))
	require.NoError(t, err)
	_, err = s.Append(ctx, sample("h1", "u", time.Now()))
	require.ErrorIs(t, err, ErrDuplicate)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func testListing(t *testing.T, s Store) {
	ctx := context.Background()
	day1 := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)

	_, err := s.Append(ctx, sample("a", "fixture/games/2024-01-15", day1))
	require.NoError(t, err)
	_, err = s.Append(ctx, sample("b", "fixture/teams/all", day1))
	require.NoError(t, err)
	_, err = s.Append(ctx, sample("c", "fixture/games/2024-01-15", day2))
	require.NoError(t, err)

	byUnit, err := s.ListByUnit(ctx, "fixture/games/2024-01-15")
	require.NoError(t, err)
	require.Len(t, byUnit, 2)
	require.Equal(t, "a", byUnit[0].Hash)
	require.Equal(t, "c", byUnit[1].Hash)

	byDate, err := s.ListByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, byDate, 2)

	byDate, err = s.ListByDate(ctx, "2024-01-16")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.Equal(t, "c", byDate[0].Hash)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", latest.Hash)
	require.Equal(t, int64(3), latest.Seq)
}

func testChain(t *testing.T, s Store) {
	ctx := context.Background()
	var prev Manifest
	for i, h := range []string{"x1", "x2", "x3"} {
		m, err := s.Append(ctx, sample(h, "u", time.Now()))
		require.NoError(t, err)
		if i > 0 {
			require.Equal(t, prev.RecordHash, m.PrevRecordHash)
		}
		prev = m
	}
	require.NoError(t, Verify(ctx, s))
}

func testEmpty(t *testing.T, s Store) {
	ctx := context.Background()
	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	require.NoError(t, Verify(ctx, s))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, h := range []string{"a", "b", "c"} {
		_, err := s.Append(ctx, sample(h, "u", time.Now()))
		require.NoError(t, err)
	}
	all, err := s.All(ctx)
	require.NoError(t, err)

	edited := append([]Manifest(nil), all...)
	edited[1].Counts.Accepted = 99
	err = VerifyChain(edited)
	require.ErrorIs(t, err, ErrChainBroken)
	var chainErr *ChainError
	require.True(t, errors.As(err, &chainErr))
	require.Equal(t, int64(2), chainErr.Seq)

	dropped := []Manifest{all[0], all[2]}
	require.ErrorIs(t, VerifyChain(dropped), ErrChainBroken)

	relinked := append([]Manifest(nil), all...)
	relinked[2].PrevRecordHash = all[0].RecordHash
	require.ErrorIs(t, VerifyChain(relinked), ErrChainBroken)
}

func TestFSStoreTamperedFileFailsVerification(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFSStore(dir)
	_, err := s.Append(ctx, sample("a", "u", time.Now()))
	require.NoError(t, err)
	_, err = s.Append(ctx, sample("b", "u", time.Now()))
	require.NoError(t, err)

	path := filepath.Join(dir, dirManifests, "a.json")
	var m Manifest
	require.NoError(t, decodeFile(path, &m))
	m.EntityIDs = append(m.EntityIDs, "game:999")
	require.NoError(t, writeJSONAtomic(path, m))

	require.ErrorIs(t, Verify(ctx, s), ErrChainBroken)
}

func TestFSStoreArchivesRawPages(t *testing.T) {
	ctx := context.Background()
	s := NewFSStore(t.TempDir())
	pages := [][]byte{[]byte(`{"data":[1]}`), []byte(`{"data":[2]}`)}

	require.NoError(t, s.ArchiveRaw(ctx, "abc", pages))
	require.NoError(t, s.ArchiveRaw(ctx, "abc", pages), "re-archiving identical pages is a no-op")

	got, err := s.RawPages("abc")
	require.NoError(t, err)
	require.Equal(t, pages, got)

	err = s.ArchiveRaw(ctx, "abc", [][]byte{[]byte(`changed`)})
	require.Error(t, err, "archived pages must never be overwritten")

	require.Error(t, s.ArchiveRaw(ctx, "../escape", pages))
}

func TestFSStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := NewFSStore(dir).Append(ctx, sample("a", "u", time.Now()))
	require.NoError(t, err)

	reopened := NewFSStore(dir)
	m, err := reopened.Append(ctx, sample("b", "u", time.Now()))
	require.NoError(t, err)
	require.Equal(t, int64(2), m.Seq)
	require.NoError(t, Verify(ctx, reopened))

	_, err = os.Stat(filepath.Join(dir, fileHead))
	require.NoError(t, err)
}

func TestFSStoreFailedIndexWriteLeavesNoManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFSStore(dir)
	first := sample("aaa", "u", time.Now())
	blocker := s.indexPath(first.Date())
	require.NoError(t, os.MkdirAll(blocker, 0o755))

	_, err := s.Append(ctx, first)
	require.Error(t, err)
	has, err := s.Has(ctx, "aaa")
	require.NoError(t, err)
	require.False(t, has, "a failed append must not be visible")

	require.NoError(t, os.RemoveAll(blocker))
	m, err := s.Append(ctx, sample("bbb", "u", time.Now()))
	require.NoError(t, err)
	require.Equal(t, int64(1), m.Seq)
	require.NoError(t, Verify(ctx, s))
}

func TestFSStoreFailedManifestWriteKeepsChain(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFSStore(dir)
	a, err := s.Append(ctx, sample("aaa", "u", time.Now()))
	require.NoError(t, err)

	blocker := s.manifestPath("ccc") + ".tmp"
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0o755))
	_, err = s.Append(ctx, sample("ccc", "u", time.Now()))
	require.Error(t, err)

	has, err := s.Has(ctx, "ccc")
	require.NoError(t, err)
	require.False(t, has)
	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, a.Hash, latest.Hash)
	byDate, err := s.ListByDate(ctx, a.Date())
	require.NoError(t, err)
	require.Len(t, byDate, 1, "dangling index entries are not listed")

	require.NoError(t, os.RemoveAll(blocker))
	m, err := s.Append(ctx, sample("ddd", "u", time.Now()))
	require.NoError(t, err)
	require.Equal(t, int64(2), m.Seq)
	require.NoError(t, Verify(ctx, s))
}

func TestFSStoreHeadFallsBackToHighestSeq(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFSStore(dir)
	for _, h := range []string{"a", "b"} {
		_, err := s.Append(ctx, sample(h, "u", time.Now()))
		require.NoError(t, err)
	}
	require.NoError(t, os.Remove(filepath.Join(dir, fileHead)))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", latest.Hash)

	require.NoError(t, os.WriteFile(filepath.Join(dir, fileHead), []byte("never-written"), 0o644))
	m, err := s.Append(ctx, sample("c", "u", time.Now()))
	require.NoError(t, err)
	require.Equal(t, int64(3), m.Seq)
	require.NoError(t, Verify(ctx, s))
}
