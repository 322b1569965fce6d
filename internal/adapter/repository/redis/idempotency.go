package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore implements usecase.IdempotencyStore using Redis. Keys are
// claimed with SETNX before the operation runs, then updated with the final
// response body so replays return the original outcome.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "kodbank:idempotency:",
	}
}

// CheckAndSet atomically checks if key exists, sets if not.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return true, existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, nil, err
	}

	if response != nil {
		err = s.client.Set(ctx, fullKey, response, ttl).Err()
		if err != nil {
			return false, nil, err
		}

		return false, nil, nil
	}

	// Claim the key with a placeholder so concurrent requests with the same
	// key observe it as in flight.
	set, err := s.client.SetNX(ctx, fullKey, "processing", ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if !set {
		existing, err := s.client.Get(ctx, fullKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, nil, err
		}

		return true, existing, nil
	}

	return false, nil, nil
}

// Update stores the final response under an already claimed key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}
