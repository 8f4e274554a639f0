package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wnt/stakewatch/internal/models"
)

// MemoryStore is an in-process snapshot store backed by a bounded LRU.
// Each wallet maps to one immutable snapshot slice, so replacement is a
// single atomic pointer swap and readers can never observe a half-written
// set.
type MemoryStore struct {
	snapshots *lru.Cache[string, []models.StakeAccount]
}

// NewMemoryStore creates an in-memory store holding up to maxWallets
// wallet snapshots
func NewMemoryStore(maxWallets int) (*MemoryStore, error) {
	snapshots, err := lru.New[string, []models.StakeAccount](maxWallets)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{snapshots: snapshots}, nil
}

// ReplaceAll swaps the wallet's snapshot
func (s *MemoryStore) ReplaceAll(ctx context.Context, wallet string, accounts []models.StakeAccount) error {
	rows := make([]models.StakeAccount, len(accounts))
	copy(rows, accounts)
	for i := range rows {
		rows[i].WalletAddress = wallet
		rows[i].Status = models.NormalizeStatus(string(rows[i].Status))
	}
	s.snapshots.Add(wallet, rows)
	return nil
}

// GetAll returns a copy of the wallet's snapshot
func (s *MemoryStore) GetAll(ctx context.Context, wallet string) ([]models.StakeAccount, error) {
	snapshot, ok := s.snapshots.Get(wallet)
	if !ok {
		return []models.StakeAccount{}, nil
	}
	accounts := make([]models.StakeAccount, len(snapshot))
	copy(accounts, snapshot)
	return accounts, nil
}
