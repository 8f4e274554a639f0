// Package cache persists the per-wallet stake account snapshot. The set
// of accounts cached for a wallet is replaced wholesale on every
// successful sync; readers must see either the full old snapshot or the
// full new one, never a mix or a transiently empty set.
package cache

import (
	"context"

	"github.com/wnt/stakewatch/internal/models"
)

// Store is the stake account snapshot store
type Store interface {
	// ReplaceAll atomically replaces the cached snapshot for a wallet
	ReplaceAll(ctx context.Context, wallet string, accounts []models.StakeAccount) error

	// GetAll returns the cached snapshot for a wallet. An unknown wallet
	// yields an empty list, not an error.
	GetAll(ctx context.Context, wallet string) ([]models.StakeAccount, error)
}
