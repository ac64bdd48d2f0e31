package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/signet/ports"
)

// MemoryLedger is an in-memory implementation of the NonceLedger interface
type MemoryLedger struct {
	consumed map[string]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewMemoryLedger creates a new in-memory nonce ledger
func NewMemoryLedger() ports.NonceLedger {
	return newMemoryLedger(time.Now)
}

func newMemoryLedger(now func() time.Time) *MemoryLedger {
	return &MemoryLedger{
		consumed: make(map[string]time.Time),
		now:      now,
	}
}

// Consume marks a nonce as used until ttl elapses
func (s *MemoryLedger) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if expiry, exists := s.consumed[key]; exists && now.Before(expiry) {
		return false, nil
	}
	s.consumed[key] = now.Add(ttl)
	return true, nil
}

// IsConsumed checks if a nonce is still remembered as used
func (s *MemoryLedger) IsConsumed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.consumed[key]
	if !exists {
		return false, nil
	}
	return s.now().Before(expiry), nil
}

// sweep drops expired entries; caller holds mu.
func (s *MemoryLedger) sweep(now time.Time) {
	for key, expiry := range s.consumed {
		if !now.Before(expiry) {
			delete(s.consumed, key)
		}
	}
}
