package ports

import (
	"context"
	"time"
)

// NonceLedger remembers nonces that have already been signed with
type NonceLedger interface {
	// Consume marks key as used for ttl. It reports false if key was already used.
	Consume(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsConsumed(ctx context.Context, key string) (bool, error)
}
