package storage

import (
	"context"
	"sync"
)

// MemoryStorage implements Storage in process memory. Nothing survives the process.
type MemoryStorage struct {
	items map[string]string
	m     sync.RWMutex
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (ms *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	ms.m.RLock()
	defer ms.m.RUnlock()

	value, ok := ms.items[key]

	return value, ok, nil
}

func (ms *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	ms.m.Lock()
	defer ms.m.Unlock()

	ms.items[key] = value

	return nil
}

func (ms *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	ms.m.Lock()
	defer ms.m.Unlock()

	delete(ms.items, key)

	return nil
}

func (ms *MemoryStorage) Close() error {
	return nil
}
