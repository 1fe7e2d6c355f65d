package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryBackend keeps everything in a map. It is meant for tests and
// one-shot runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Has implements Backend.
func (b *MemoryBackend) Has(_ context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.data[key]

	return ok, nil
}

// Get implements Backend.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(data), nil
}

// PutIfAbsent implements Backend.
func (b *MemoryBackend) PutIfAbsent(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.data[key]; !ok {
		b.data[key] = slices.Clone(data)
	}

	return nil
}

// Put implements Backend.
func (b *MemoryBackend) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = slices.Clone(data)

	return nil
}

// Len returns the number of stored keys.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.data)
}

// Count returns the number of stored keys of the given kind.
func (b *MemoryBackend) Count(kind string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0

	for key := range b.data {
		if strings.HasPrefix(key, kind+keySeparator) {
			n++
		}
	}

	return n
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
