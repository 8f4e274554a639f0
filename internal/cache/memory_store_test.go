package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnt/stakewatch/internal/models"
)

func TestMemoryStoreReplaceAndGet(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)
	ctx := context.Background()

	accounts := []models.StakeAccount{
		{StakeAccount: "Acc1", Status: models.StatusActive},
		{StakeAccount: "Acc2", Status: models.StakeAccountStatus("weird")},
	}
	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", accounts))

	got, err := store.GetAll(ctx, "Wallet1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Wallet1", got[0].WalletAddress)
	assert.Equal(t, models.StatusActive, got[0].Status)
	// Unknown statuses normalize on write
	assert.Equal(t, models.StatusInactive, got[1].Status)
}

func TestMemoryStoreUnknownWallet(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)

	got, err := store.GetAll(context.Background(), "NeverSeen")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreReplaceIsFull(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", []models.StakeAccount{
		{StakeAccount: "Old1"}, {StakeAccount: "Old2"}, {StakeAccount: "Old3"},
	}))
	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", []models.StakeAccount{
		{StakeAccount: "New1"},
	}))

	got, err := store.GetAll(ctx, "Wallet1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New1", got[0].StakeAccount)
}

func TestMemoryStoreCopiesInAndOut(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)
	ctx := context.Background()

	input := []models.StakeAccount{{StakeAccount: "Acc1"}}
	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", input))

	// Mutating the caller's slice after the write must not leak in
	input[0].StakeAccount = "Mutated"
	got, err := store.GetAll(ctx, "Wallet1")
	require.NoError(t, err)
	assert.Equal(t, "Acc1", got[0].StakeAccount)

	// Mutating a read result must not leak back
	got[0].StakeAccount = "AlsoMutated"
	again, err := store.GetAll(ctx, "Wallet1")
	require.NoError(t, err)
	assert.Equal(t, "Acc1", again[0].StakeAccount)
}

func TestMemoryStoreConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)
	ctx := context.Background()

	oldSet := []models.StakeAccount{{StakeAccount: "Old1"}, {StakeAccount: "Old2"}}
	newSet := []models.StakeAccount{{StakeAccount: "New1"}, {StakeAccount: "New2"}, {StakeAccount: "New3"}}
	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", oldSet))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, err := store.GetAll(ctx, "Wallet1")
				assert.NoError(t, err)
				// Every read is either the old set or the new set, never
				// a mix
				if len(got) == 2 {
					assert.Equal(t, "Old1", got[0].StakeAccount)
				} else {
					assert.Len(t, got, 3)
					assert.Equal(t, "New1", got[0].StakeAccount)
				}
			}
		}()
	}

	for j := 0; j < 100; j++ {
		set := oldSet
		if j%2 == 1 {
			set = newSet
		}
		require.NoError(t, store.ReplaceAll(ctx, "Wallet1", set))
	}
	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", newSet))
	wg.Wait()
}

func TestMemoryStoreEvictsLeastRecentWallet(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "Wallet1", []models.StakeAccount{{StakeAccount: "A"}}))
	require.NoError(t, store.ReplaceAll(ctx, "Wallet2", []models.StakeAccount{{StakeAccount: "B"}}))
	require.NoError(t, store.ReplaceAll(ctx, "Wallet3", []models.StakeAccount{{StakeAccount: "C"}}))

	got, err := store.GetAll(ctx, "Wallet1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.GetAll(ctx, "Wallet3")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
