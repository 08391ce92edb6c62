// Package repository provides the stores backing verification: the
// seen-hash store used for duplicate detection and the results store
// keyed by verification id.
package repository

import (
	"context"
	"sync"
)

// InMemoryHashStore implements fraud.HashStore with a mutex-guarded
// set. The set grows monotonically for the process lifetime; production
// deployments that need persistence use the Redis-backed store instead.
type InMemoryHashStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryHashStore creates an empty in-memory hash store.
func NewInMemoryHashStore() *InMemoryHashStore {
	return &InMemoryHashStore{seen: make(map[string]struct{})}
}

// SeenAndRecord atomically checks whether hash was seen and records it
// if not. The check-then-insert runs under one lock so concurrent
// submissions of the same fingerprint report it new at most once.
func (s *InMemoryHashStore) SeenAndRecord(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[hash]; ok {
		return true, nil
	}
	s.seen[hash] = struct{}{}
	return false, nil
}

// Size returns the number of recorded fingerprints.
func (s *InMemoryHashStore) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.seen)), nil
}
