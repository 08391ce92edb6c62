package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// defaultHashSetKey is the Redis set holding seen fingerprints.
const defaultHashSetKey = "ecoproof:seen_hashes"

// RedisOption applies a configuration option to the RedisHashStore.
type RedisOption func(*RedisHashStore)

// WithHashSetKey overrides the Redis set key.
func WithHashSetKey(key string) RedisOption {
	return func(s *RedisHashStore) {
		if key != "" {
			s.key = key
		}
	}
}

// RedisHashStore implements fraud.HashStore on a Redis set. SADD is
// atomic on the server, which gives the required check-and-insert
// semantics across processes.
type RedisHashStore struct {
	client *redis.Client
	key    string
}

// NewRedisHashStore connects to the Redis instance at addr.
func NewRedisHashStore(addr string, opts ...RedisOption) *RedisHashStore {
	s := &RedisHashStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    defaultHashSetKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeenAndRecord adds hash to the set; an add count of zero means the
// fingerprint was already present.
func (s *RedisHashStore) SeenAndRecord(ctx context.Context, hash string) (bool, error) {
	added, err := s.client.SAdd(ctx, s.key, hash).Result()
	if err != nil {
		return false, fmt.Errorf("redis sadd: %w", err)
	}
	return added == 0, nil
}

// Size returns the fingerprint count.
func (s *RedisHashStore) Size(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis scard: %w", err)
	}
	return n, nil
}

// Close releases the client connection pool.
func (s *RedisHashStore) Close() error {
	return s.client.Close()
}
