// Package memstore is an in-memory domain.BlobStore for tests and --memory runs.
package memstore

import (
	"sync"

	"github.com/stakeday/stakeday/internal/domain"
)

// Store keeps blobs in a map.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob under key, or domain.ErrBlobNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	s.blobs[key] = append([]byte{}, value...)
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok
}
