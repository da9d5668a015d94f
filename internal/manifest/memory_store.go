package manifest

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps manifests in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[string]int
	log    []Manifest
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]int)}
}

func (s *MemoryStore) Append(ctx context.Context, m Manifest) (Manifest, error) {
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[m.Hash]; ok {
		return Manifest{}, ErrDuplicate
	}
	var head *Manifest
	if n := len(s.log); n > 0 {
		head = &s.log[n-1]
	}
	sealed := Seal(m, head)
	s.byHash[sealed.Hash] = len(s.log)
	s.log = append(s.log, sealed)
	return clone(sealed), nil
}

func (s *MemoryStore) Get(ctx context.Context, hash string) (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byHash[hash]
	if !ok {
		return Manifest{}, ErrNotFound
	}
	return clone(s.log[i]), nil
}

func (s *MemoryStore) Has(ctx context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[hash]
	return ok, nil
}

func (s *MemoryStore) ListByUnit(ctx context.Context, unitID string) ([]Manifest, error) {
	return s.filter(func(m Manifest) bool { return m.UnitID == unitID }), nil
}

func (s *MemoryStore) ListByDate(ctx context.Context, date string) ([]Manifest, error) {
	return s.filter(func(m Manifest) bool { return m.Date() == date }), nil
}

func (s *MemoryStore) Latest(ctx context.Context) (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.log) == 0 {
		return Manifest{}, ErrNotFound
	}
	return clone(s.log[len(s.log)-1]), nil
}

func (s *MemoryStore) All(ctx context.Context) ([]Manifest, error) {
	return s.filter(func(Manifest) bool { return true }), nil
}

func (s *MemoryStore) filter(keep func(Manifest) bool) []Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Manifest, 0)
	for _, m := range s.log {
		if keep(m) {
			out = append(out, clone(m))
		}
	}
	return out
}
