package notifications

import (
	"context"
	"sync"
)

var _ StateStore = (*MemoryStore)(nil)

// MemoryStore keeps alert state in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get implements StateStore.
func (m *MemoryStore) Get(_ context.Context, id string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[id]
	return state, ok, nil
}

// Put implements StateStore.
func (m *MemoryStore) Put(_ context.Context, id string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state
	return nil
}
