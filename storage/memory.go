package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns a storage that keeps values in memory.
func NewMemory() Storage {
	return &memory{
		values: make(map[string][]byte),
	}
}

func (m *memory) Has(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.values[key]
	return ok, nil
}

func (m *memory) Put(ctx context.Context, key string, content []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = slices.Clone(content)
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(content), nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	return nil
}

func (m *memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
