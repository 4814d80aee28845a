package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hongminglow/defect-portal/internal/storage"
)

var _ storage.SlotStore = (*Store)(nil)

const keyPrefix = "portal:slot:"

// Store keeps each slot as a Redis hash that expires ttl after its last write.
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewSlotStore connects to redisURL and verifies the connection.
func NewSlotStore(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get returns key from the slot hash, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, slot, key string) (string, error) {
	value, err := s.client.HGet(ctx, keyPrefix+slot, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get session item: %w", err)
	}
	return value, nil
}

// Set writes key and resets the slot TTL.
func (s *Store) Set(ctx context.Context, slot, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, keyPrefix+slot, key, value)
	pipe.Expire(ctx, keyPrefix+slot, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set session item: %w", err)
	}
	return nil
}

// Delete removes keys from the slot hash.
func (s *Store) Delete(ctx context.Context, slot string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, keyPrefix+slot, keys...).Err(); err != nil {
		return fmt.Errorf("delete session items: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
