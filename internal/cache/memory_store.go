package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in a map guarded by an RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	e.Payload = append([]byte(nil), e.Payload...)
	return e, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, e Entry) error {
	e.Payload = append([]byte(nil), e.Payload...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *MemoryStore) DeleteEndpoint(ctx context.Context, provider, endpoint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.Provider == provider && e.Endpoint == endpoint {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if !e.Fresh(now) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
