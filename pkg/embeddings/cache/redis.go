package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

// DefaultTTL is how long cached embeddings live in Redis.
const DefaultTTL = 7 * 24 * time.Hour

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to target, either a redis:// URL or a host:port
// address, and verifies the connection.
func NewRedisStore(ctx context.Context, target string, ttl time.Duration) (*RedisStore, error) {
	if target == "" {
		return nil, errors.New("redis target is required")
	}

	var opts *redis.Options
	if strings.Contains(target, "://") {
		parsed, err := redis.ParseURL(target)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: target}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: pinging redis: %v", vector.ErrStorageUnavailable, err)
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get returns the value for key or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set stores value under key with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
