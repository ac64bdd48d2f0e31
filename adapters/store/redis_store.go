package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/signet/ports"
	"github.com/redis/go-redis/v9"
)

// RedisLedger is a Redis implementation of the NonceLedger interface
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLedger creates a new Redis nonce ledger
func NewRedisLedger(client redis.UniversalClient) ports.NonceLedger {
	return &RedisLedger{
		client: client,
		prefix: "signet:nonce:",
	}
}

// Consume marks a nonce as used in Redis. SET NX makes the check and the
// write a single step across instances.
func (s *RedisLedger) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return ok, nil
}

// IsConsumed checks if a nonce is marked as used in Redis
func (s *RedisLedger) IsConsumed(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check nonce: %w", err)
	}
	return val > 0, nil
}
