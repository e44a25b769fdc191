package store

import (
	"context"
	"sync"

	"github.com/grocerycalc/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory blob store. Values are copied on
// the way in and out so callers never share the backing slice.
type MemoryStore struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value from the store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, domain.ErrSlotEmpty
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put replaces the value stored under key
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[key] = stored
	return nil
}
