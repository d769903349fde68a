package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps entries in process memory. A positive quota caps the total
// size of keys plus values in bytes, the way browser storage does.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	used    int64
	quota   int64
}

func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
		quota:   quotaBytes,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + int64(len(key)+len(value))
	if old, ok := m.entries[key]; ok {
		used -= int64(len(key) + len(old))
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.entries[key] = value
	m.used = used
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.used -= int64(len(key) + len(old))
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Used returns the bytes currently accounted against the quota.
func (m *MemoryStore) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
