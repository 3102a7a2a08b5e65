package kv

import "sync"

// MemoryStore is an in-memory Store used by tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte

	// FailPuts makes every Put fail, for exercising write-failure paths.
	FailPuts error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: map[string][]byte{}}
}

// Get returns the blob stored under key, or ErrNotFound.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put overwrites the blob stored under key.
func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return m.FailPuts
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.slots[key] = stored
	return nil
}

// Delete removes the slot.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// Exists reports whether the slot is present.
func (m *MemoryStore) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[key]
	return ok, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
