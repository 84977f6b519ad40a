package snapshot

import (
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryStorage keeps snapshots in process memory. Stored data is copied on the way in and out.
type MemoryStorage struct {
	snapshots map[string][]byte
	mu        sync.RWMutex
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snapshots: make(map[string][]byte)}
}

func (m *MemoryStorage) Store(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = slices.Clone(data)
	return nil
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[key]
	if !ok {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "key %s", key)
	}
	return slices.Clone(data), nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
