package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrackerAcquireAndRelease(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	ctx := context.Background()

	acquired, err := tr.TryAcquire(ctx, "Wallet1")
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire for the same wallet is refused
	acquired, err = tr.TryAcquire(ctx, "Wallet1")
	require.NoError(t, err)
	assert.False(t, acquired)

	// Other wallets are unaffected
	acquired, err = tr.TryAcquire(ctx, "Wallet2")
	require.NoError(t, err)
	assert.True(t, acquired)

	tr.Release(ctx, "Wallet1")
	acquired, err = tr.TryAcquire(ctx, "Wallet1")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryTrackerExpiresStaleEntries(t *testing.T) {
	tr := NewMemoryTracker(10 * time.Millisecond)
	ctx := context.Background()

	acquired, err := tr.TryAcquire(ctx, "Wallet1")
	require.NoError(t, err)
	require.True(t, acquired)

	// An entry left behind by a crashed refresh frees itself
	time.Sleep(20 * time.Millisecond)
	acquired, err = tr.TryAcquire(ctx, "Wallet1")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryTrackerSingleWinnerUnderContention(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := tr.TryAcquire(ctx, "Wallet1")
			assert.NoError(t, err)
			if acquired {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
