package memory

import (
	"context"
	"sync"

	"quiz-progression-service/internal/domain"
)

// StateStore is an in-memory implementation of app.StateStore.
type StateStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewStateStore() *StateStore {
	return &StateStore{
		blobs: make(map[string][]byte),
	}
}

func (s *StateStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *StateStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}

func (s *StateStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Keys returns the stored keys; handy for assertions.
func (s *StateStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	return keys
}
