package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps collections in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Read(ctx context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[collection]
	if !ok {
		return nil, ErrNotExist
	}
	return slices.Clone(data), nil
}

func (s *MemoryStore) Write(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.Collection] = slices.Clone(doc.Data)
	}
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[collection]; ok {
		return false, nil
	}
	s.docs[collection] = slices.Clone(data)
	return true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
