// Package rewards fans reward export downloads out across all of a
// wallet's stake accounts and folds the parsed payouts into one
// portfolio-level time series keyed by (epoch, effective time).
package rewards

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/export"
	"github.com/wnt/stakewatch/internal/metrics"
	"github.com/wnt/stakewatch/internal/models"
	"golang.org/x/sync/errgroup"
)

// Exporter is the subset of the upstream client the aggregator needs
type Exporter interface {
	ExportRewards(ctx context.Context, account string) (string, error)
}

// RecordSink receives parsed reward records for persistence. Sink
// failures are logged and absorbed; persistence is a side channel of
// aggregation, not a requirement for it.
type RecordSink interface {
	UpsertRewards(ctx context.Context, records []models.RewardRecord) error
}

// Result is the outcome of one aggregation run. Points maps
// "epoch|effective time" to the summed reward amount in lamports across
// all accounts. The map is unordered; callers sort before charting.
type Result struct {
	Points         map[string]float64
	RecordCount    int
	FailedAccounts int
}

// Key builds the aggregation key for one payout. Two stake accounts
// rewarded in the same epoch at the same recorded time sum into one
// point; that is the intended portfolio-level view.
func Key(epoch uint32, effectiveTime string) string {
	return fmt.Sprintf("%d|%s", epoch, effectiveTime)
}

// Aggregator merges reward histories across stake accounts
type Aggregator struct {
	exporter      Exporter
	sink          RecordSink
	parser        *export.Parser
	maxConcurrent int
	logger        zerolog.Logger
}

// NewAggregator creates a new reward aggregator. sink may be nil when
// reward persistence is not wanted.
func NewAggregator(exporter Exporter, sink RecordSink, maxConcurrent int, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		exporter:      exporter,
		sink:          sink,
		parser:        export.NewParser(logger),
		maxConcurrent: maxConcurrent,
		logger:        logger.With().Str("component", "reward_aggregator").Logger(),
	}
}

// Aggregate downloads and parses the reward export of every account,
// bounded to maxConcurrent in-flight requests, and sums amounts per
// (epoch, effective time) key. One account failing never fails the run:
// it contributes zero records and is counted in FailedAccounts.
func (a *Aggregator) Aggregate(ctx context.Context, accounts []models.StakeAccount) (*Result, error) {
	result := &Result{Points: make(map[string]float64)}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(a.maxConcurrent)

	for _, account := range accounts {
		account := account
		g.Go(func() error {
			records, failed := a.fetchAccount(ctx, account.StakeAccount)

			mu.Lock()
			defer mu.Unlock()
			if failed {
				result.FailedAccounts++
				return nil
			}
			for _, rec := range records {
				result.Points[Key(rec.Epoch, rec.EffectiveTime)] += rec.RewardAmount
				result.RecordCount++
			}
			return nil
		})
	}

	// Goroutines absorb their own failures; Wait only joins them.
	_ = g.Wait()

	metrics.SetAggregatedRewardPoints(len(result.Points))
	a.logger.Info().
		Int("accounts", len(accounts)).
		Int("points", len(result.Points)).
		Int("records", result.RecordCount).
		Int("failed_accounts", result.FailedAccounts).
		Msg("Reward aggregation completed")

	return result, nil
}

// fetchAccount downloads and parses one account's export. The returned
// flag marks a countable failure; a malformed or header-only export is
// reported as zero records instead, because absence of reward activity
// is common and expected.
func (a *Aggregator) fetchAccount(ctx context.Context, account string) ([]export.Record, bool) {
	raw, err := a.exporter.ExportRewards(ctx, account)
	if err != nil {
		metrics.RecordRewardExport("failed")
		a.logger.Warn().
			Err(err).
			Str("account", account).
			Msg("Failed to fetch reward export")
		return nil, true
	}

	records, err := a.parser.Parse(raw)
	if err != nil {
		if errors.Is(err, export.ErrMalformedInput) {
			metrics.RecordRewardExport("empty")
			a.logger.Debug().
				Str("account", account).
				Msg("No reward activity in export")
			return nil, false
		}
		metrics.RecordRewardExport("failed")
		a.logger.Warn().
			Err(err).
			Str("account", account).
			Msg("Failed to parse reward export")
		return nil, true
	}

	metrics.RecordRewardExport("success")
	a.persist(ctx, account, records)
	return records, false
}

// persist forwards parsed records to the sink, if one is configured
func (a *Aggregator) persist(ctx context.Context, account string, records []export.Record) {
	if a.sink == nil || len(records) == 0 {
		return
	}

	rows := make([]models.RewardRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.RewardRecord{
			StakeAccount:      account,
			Epoch:             rec.Epoch,
			EffectiveSlot:     rec.EffectiveSlot,
			EffectiveTime:     rec.EffectiveTime,
			EffectiveTimeUnix: rec.EffectiveTimeUnix,
			Amount:            rec.RewardAmount,
			PostBalance:       rec.PostBalance,
			Commission:        rec.Commission,
		})
	}

	if err := a.sink.UpsertRewards(ctx, rows); err != nil {
		a.logger.Warn().
			Err(err).
			Str("account", account).
			Msg("Failed to persist reward records")
	}
}
