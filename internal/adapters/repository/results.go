package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/ecowander/ecoproof/internal/domain/model"
)

// Default results store configuration constants.
const defaultShardCount = 8

// ResultStore provides access to completed verification results.
type ResultStore interface {
	// Put stores the result under its verification id.
	Put(ctx context.Context, result model.VerificationResult) error

	// Get returns the result for id. Returns ErrNotFound if the id is
	// unknown (or still being processed).
	Get(ctx context.Context, id string) (model.VerificationResult, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int
}

// ResultOption applies a configuration option to the InMemoryResultStore.
type ResultOption func(*InMemoryResultStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) ResultOption {
	return func(s *InMemoryResultStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// InMemoryResultStore implements ResultStore with sharded maps to keep
// lock contention low under concurrent workers.
type InMemoryResultStore struct {
	shardCount int
	shards     []resultShard
}

type resultShard struct {
	mu      sync.RWMutex
	results map[string]model.VerificationResult
}

// NewInMemoryResultStore creates a sharded in-memory results store.
func NewInMemoryResultStore(opts ...ResultOption) *InMemoryResultStore {
	s := &InMemoryResultStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]resultShard, s.shardCount)
	for i := range s.shards {
		s.shards[i].results = make(map[string]model.VerificationResult)
	}
	return s
}

func (s *InMemoryResultStore) shard(id string) *resultShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[int(h.Sum32())%s.shardCount]
}

// Put stores the result under its verification id.
func (s *InMemoryResultStore) Put(_ context.Context, result model.VerificationResult) error {
	sh := s.shard(result.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.results[result.ID] = result
	return nil
}

// Get returns the stored result for id.
func (s *InMemoryResultStore) Get(_ context.Context, id string) (model.VerificationResult, error) {
	sh := s.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	result, ok := sh.results[id]
	if !ok {
		return model.VerificationResult{}, ErrNotFound
	}
	return result, nil
}

// Count returns the number of stored results.
func (s *InMemoryResultStore) Count(_ context.Context) int {
	total := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		total += len(s.shards[i].results)
		s.shards[i].mu.RUnlock()
	}
	return total
}
