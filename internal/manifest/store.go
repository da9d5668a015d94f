package manifest

import (
	"context"
	"fmt"
	"sort"
)

// Store is an append-only manifest log. Append assigns the chain position
// and returns the sealed manifest.
type Store interface {
	Append(ctx context.Context, m Manifest) (Manifest, error)
	Get(ctx context.Context, hash string) (Manifest, error)
	Has(ctx context.Context, hash string) (bool, error)
	ListByUnit(ctx context.Context, unitID string) ([]Manifest, error)
	ListByDate(ctx context.Context, date string) ([]Manifest, error)
	Latest(ctx context.Context) (Manifest, error)
	All(ctx context.Context) ([]Manifest, error)
}

// RawArchiver keeps the raw pages behind a manifest hash.
type RawArchiver interface {
	ArchiveRaw(ctx context.Context, hash string, pages [][]byte) error
}

// VerifyChain checks sequence continuity, prev links and record hashes.
// ms must be ordered by Seq.
func VerifyChain(ms []Manifest) error {
	prev := ""
	for i, m := range ms {
		if m.Seq != int64(i+1) {
			return &ChainError{Seq: m.Seq, Hash: m.Hash, Reason: fmt.Sprintf("expected seq %d", i+1)}
		}
		if m.PrevRecordHash != prev {
			return &ChainError{Seq: m.Seq, Hash: m.Hash, Reason: "prev_record_hash does not match previous record"}
		}
		if digest(m) != m.RecordHash {
			return &ChainError{Seq: m.Seq, Hash: m.Hash, Reason: "record_hash does not match contents"}
		}
		prev = m.RecordHash
	}
	return nil
}

// Verify loads every manifest from s and checks the chain.
func Verify(ctx context.Context, s Store) error {
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	return VerifyChain(all)
}

func sortBySeq(ms []Manifest) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Seq < ms[j].Seq })
}

func clone(m Manifest) Manifest {
	m.Errors = append([]string(nil), m.Errors...)
	m.Warnings = append([]string(nil), m.Warnings...)
	m.EntityIDs = append([]string(nil), m.EntityIDs...)
	return m
}
