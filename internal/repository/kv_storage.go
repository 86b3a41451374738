// Package repository provides data access implementations
package repository

import (
	"sync"
)

// KVStorage is the key-value collaborator the stores persist through.
// Set and Remove must be durable before they return.
type KVStorage interface {
	// Get returns the value under key; ok is false when the key is absent
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Remove deletes key; removing an absent key is not an error
	Remove(key string) error
	Close() error
}

// MemoryKVStorage keeps values in a map. It is used by tests and dry runs.
type MemoryKVStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKVStorage creates an empty in-memory storage
func NewMemoryKVStorage() *MemoryKVStorage {
	return &MemoryKVStorage{values: make(map[string]string)}
}

func (m *MemoryKVStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKVStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKVStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKVStorage) Close() error {
	return nil
}
