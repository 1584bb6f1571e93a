package storage

import (
	"context"
	"sync"
)

// MemoryCounter is an in-memory Counter backed by nested maps.
// Thread-safe for concurrent use.
type MemoryCounter struct {
	mu    sync.RWMutex
	items map[string]map[string]int64
}

// NewMemoryCounter creates an empty in-memory counter store.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		items: make(map[string]map[string]int64),
	}
}

func (s *MemoryCounter) Incr(_ context.Context, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.items[key]
	if !ok {
		fields = make(map[string]int64)
		s.items[key] = fields
	}
	fields[field] += delta
	return fields[field], nil
}

func (s *MemoryCounter) Snapshot(_ context.Context, key string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to prevent mutation.
	out := make(map[string]int64, len(s.items[key]))
	for f, v := range s.items[key] {
		out[f] = v
	}
	return out, nil
}

func (s *MemoryCounter) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *MemoryCounter) Close() error { return nil }

// Len returns the number of keys held.
func (s *MemoryCounter) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
