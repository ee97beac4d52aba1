package repository

import (
	"context"
	"sync"
)

// MemoryBlobStore keeps blobs in process memory. Nothing survives a restart.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

// NewMemoryBlobStore returns an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Driver() Driver { return DriverMemory }

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	return copyBytes(data), nil
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objs[key] = copyBytes(data)
	return nil
}

var _ BlobStore = (*MemoryBlobStore)(nil)
