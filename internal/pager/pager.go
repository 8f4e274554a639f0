// Package pager drives the stake account listing endpoint across pages
// until the continuation signal stops, collecting the complete account
// set for one wallet.
package pager

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/metrics"
	"github.com/wnt/stakewatch/internal/models"
	"github.com/wnt/stakewatch/internal/solscan"
)

// StakeLister is the subset of the upstream client the pager needs
type StakeLister interface {
	ListStakeAccounts(ctx context.Context, address string, page, pageSize int) (*solscan.StakeAccountPage, error)
}

// Result is the outcome of a full pagination run. Partial is set when at
// least one page failed; the accumulated accounts are still usable.
type Result struct {
	Accounts    []models.StakeAccount
	Partial     bool
	FailedPages int
}

// Aggregator collects all stake account pages for a wallet
type Aggregator struct {
	client                 StakeLister
	pageSize               int
	maxConsecutiveFailures int
	logger                 zerolog.Logger
}

// NewAggregator creates a new page aggregator
func NewAggregator(client StakeLister, pageSize, maxConsecutiveFailures int, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		client:                 client,
		pageSize:               pageSize,
		maxConsecutiveFailures: maxConsecutiveFailures,
		logger:                 logger.With().Str("component", "pager").Logger(),
	}
}

// FetchAll retrieves every stake account page for the wallet, starting at
// page 1. A failed page does not abort the run: the aggregator advances
// to the next page and keeps collecting, giving up only after
// maxConsecutiveFailures pages fail in a row. A hard error is returned
// only when nothing at all could be collected.
func (a *Aggregator) FetchAll(ctx context.Context, address string) (*Result, error) {
	accounts := make([]models.StakeAccount, 0)
	consecutiveFailures := 0
	failedPages := 0
	var lastErr error

	for page := 1; ; page++ {
		pg, err := a.client.ListStakeAccounts(ctx, address, page, a.pageSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			failedPages++
			consecutiveFailures++
			lastErr = err
			metrics.RecordPageFetched("failed")

			a.logger.Warn().
				Err(err).
				Str("wallet", address).
				Int("page", page).
				Int("consecutive_failures", consecutiveFailures).
				Msg("Failed to fetch stake account page, advancing")

			if consecutiveFailures >= a.maxConsecutiveFailures {
				a.logger.Error().
					Str("wallet", address).
					Int("failed_pages", failedPages).
					Msg("Giving up pagination after consecutive page failures")
				break
			}
			continue
		}

		consecutiveFailures = 0
		metrics.RecordPageFetched("success")

		if len(pg.Data) == 0 {
			break
		}
		accounts = append(accounts, pg.Data...)

		if !pg.HasNext(a.pageSize) {
			break
		}
	}

	if len(accounts) == 0 && failedPages > 0 {
		return nil, fmt.Errorf("no stake account pages could be fetched for %s: %w", address, lastErr)
	}

	a.logger.Info().
		Str("wallet", address).
		Int("accounts", len(accounts)).
		Int("failed_pages", failedPages).
		Msg("Stake account pagination completed")

	return &Result{
		Accounts:    accounts,
		Partial:     failedPages > 0,
		FailedPages: failedPages,
	}, nil
}
