package session

import (
	"context"
	"sync"
)

// MemoryStore implements Store with an in-process map. Intended for tests
// and single-node deployments; use RedisStore when sessions must survive
// restarts or be shared across instances.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
	active bool
}

// NewMemoryStore creates an empty, not-yet-started store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]any)}
}

// Start marks the session as started without writing any value.
func (m *MemoryStore) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
}

func (m *MemoryStore) Get(_ context.Context, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryStore) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}
