package state

import (
	"context"
	"sync"
)

// InMemoryStore is an in-memory implementation of the Store interface. It
// survives an engine being torn down within one process, which is enough to
// exercise recovery in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Put stores a copy of blob.
func (s *InMemoryStore) Put(ctx context.Context, engineID string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[engineID] = cp
	return nil
}

// Get returns a copy of the stored blob.
func (s *InMemoryStore) Get(ctx context.Context, engineID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	blob, ok := s.blobs[engineID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Close marks the store closed.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
