package store

import (
	"context"
	"sync"
)

// MemoryStore keeps solutions in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]Solution
	order []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Solution)}
}

func (m *MemoryStore) Save(_ context.Context, s Solution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.byID[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return Solution{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Latest(_ context.Context) (Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return Solution{}, ErrNotFound
	}
	return m.byID[m.order[len(m.order)-1]], nil
}

func (m *MemoryStore) Close() error { return nil }
