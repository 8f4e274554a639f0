// Package tracker deduplicates in-flight wallet refreshes so a wallet
// gets at most one concurrent background refresh. Entries expire after a
// TTL so a crashed refresh never wedges a wallet permanently.
package tracker

import (
	"context"
	"sync"
	"time"
)

// Tracker marks wallets as having a refresh in flight
type Tracker interface {
	// TryAcquire marks the wallet as refreshing. It returns false when a
	// refresh is already in flight for that wallet.
	TryAcquire(ctx context.Context, wallet string) (bool, error)

	// Release clears the in-flight mark
	Release(ctx context.Context, wallet string)
}

// MemoryTracker is an in-process tracker
type MemoryTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	inflight map[string]time.Time
}

// NewMemoryTracker creates an in-process tracker with the given
// stale-entry TTL
func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	return &MemoryTracker{
		ttl:      ttl,
		inflight: make(map[string]time.Time),
	}
}

// TryAcquire marks the wallet as refreshing
func (t *MemoryTracker) TryAcquire(ctx context.Context, wallet string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	started, ok := t.inflight[wallet]
	if ok && time.Since(started) < t.ttl {
		return false, nil
	}
	t.inflight[wallet] = time.Now()
	return true, nil
}

// Release clears the in-flight mark
func (t *MemoryTracker) Release(ctx context.Context, wallet string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, wallet)
}
