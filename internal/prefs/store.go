// Package prefs persists small user preferences such as the last searched
// city.
package prefs

import (
	"context"
	"sync"
)

// KeyLastCity holds the city name of the last successful search.
const KeyLastCity = "lastCity"

type Store interface {
	// GetString returns def when key has never been written.
	GetString(ctx context.Context, key, def string) (string, error)
	PutString(ctx context.Context, key, value string) error
	Close() error
}

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) GetString(_ context.Context, key, def string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *MemoryStore) PutString(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
