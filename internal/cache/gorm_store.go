package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/metrics"
	"github.com/wnt/stakewatch/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// replaceBatchSize bounds the insert payload for very large account sets.
// Batches run inside the replacement transaction, so chunking never
// weakens the atomicity of the snapshot swap.
const replaceBatchSize = 100

// GormStore is the relational snapshot store
type GormStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewGormStore creates a new database-backed store
func NewGormStore(db *gorm.DB, logger zerolog.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: logger.With().Str("component", "cache_store").Logger(),
	}
}

// ReplaceAll swaps the wallet's snapshot in a single transaction. The
// delete and the chunked inserts commit together: a concurrent reader
// sees the prior snapshot until the commit, never an empty window.
func (s *GormStore) ReplaceAll(ctx context.Context, wallet string, accounts []models.StakeAccount) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("wallet_address = ?", wallet).Delete(&models.StakeAccount{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", err)
		}

		if len(accounts) == 0 {
			return nil
		}

		rows := make([]models.StakeAccount, len(accounts))
		copy(rows, accounts)
		for i := range rows {
			rows[i].ID = 0
			rows[i].WalletAddress = wallet
			rows[i].Status = models.NormalizeStatus(string(rows[i].Status))
		}

		if err := tx.CreateInBatches(rows, replaceBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		return nil
	})

	if err != nil {
		metrics.RecordCacheOperation("replace_all", "failed")
		return err
	}

	metrics.RecordCacheOperation("replace_all", "success")
	s.logger.Debug().
		Str("wallet", wallet).
		Int("accounts", len(accounts)).
		Msg("Replaced stake account snapshot")
	return nil
}

// GetAll returns the cached snapshot for a wallet
func (s *GormStore) GetAll(ctx context.Context, wallet string) ([]models.StakeAccount, error) {
	accounts := make([]models.StakeAccount, 0)
	if err := s.db.WithContext(ctx).Where("wallet_address = ?", wallet).Find(&accounts).Error; err != nil {
		metrics.RecordCacheOperation("get_all", "failed")
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	metrics.RecordCacheOperation("get_all", "success")
	return accounts, nil
}

// UpsertRewards stores parsed reward records, keyed by
// (stake_account, epoch). Re-fetching an export updates rows in place
// rather than duplicating them.
func (s *GormStore) UpsertRewards(ctx context.Context, records []models.RewardRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stake_account"}, {Name: "epoch"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"effective_slot",
			"effective_time",
			"effective_time_unix",
			"amount",
			"post_balance",
			"commission",
			"updated_at",
		}),
	}).CreateInBatches(records, replaceBatchSize).Error

	if err != nil {
		metrics.RecordCacheOperation("upsert_rewards", "failed")
		return fmt.Errorf("failed to upsert reward records: %w", err)
	}

	metrics.RecordCacheOperation("upsert_rewards", "success")
	return nil
}
