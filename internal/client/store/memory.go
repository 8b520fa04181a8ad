package store

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	wmu  sync.Mutex // serializes writers, including whole Update calls
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	tx := &MemoryStore{data: maps.Clone(s.data)}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}
