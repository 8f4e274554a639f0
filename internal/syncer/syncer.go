// Package syncer coordinates a wallet refresh: cached data is returned
// immediately when present, a full refresh runs in the background, and
// partial failures are reported without aborting the whole operation.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/cache"
	"github.com/wnt/stakewatch/internal/metrics"
	"github.com/wnt/stakewatch/internal/models"
	"github.com/wnt/stakewatch/internal/pager"
	"github.com/wnt/stakewatch/internal/rewards"
	"github.com/wnt/stakewatch/internal/tracker"
)

// backgroundRefreshTimeout bounds one full background refresh
const backgroundRefreshTimeout = 10 * time.Minute

// ErrInvalidAddress is returned for strings that are not a base58
// Solana public key
var ErrInvalidAddress = errors.New("invalid wallet address")

// PageFetcher retrieves the complete stake account set for a wallet
type PageFetcher interface {
	FetchAll(ctx context.Context, address string) (*pager.Result, error)
}

// RewardAggregator merges reward histories across stake accounts
type RewardAggregator interface {
	Aggregate(ctx context.Context, accounts []models.StakeAccount) (*rewards.Result, error)
}

// PortfolioClient fetches the wallet's native balance
type PortfolioClient interface {
	GetPortfolio(ctx context.Context, address string) (uint64, error)
}

// EventType identifies a refresh lifecycle event
type EventType string

const (
	EventRefreshStarted   EventType = "refresh_started"
	EventRefreshCompleted EventType = "refresh_completed"
	EventRefreshPartial   EventType = "refresh_partial"
	EventRefreshFailed    EventType = "refresh_failed"
)

// Event is a refresh notification. Events are the orchestrator's only
// user-facing signal; whatever presentation layer exists consumes them.
type Event struct {
	Type           EventType
	Wallet         string
	Accounts       int
	FailedPages    int
	FailedAccounts int
	Message        string
}

// RefreshResult is returned to the caller of RefreshWallet
type RefreshResult struct {
	Accounts      []models.StakeAccount `json:"accounts"`
	Partial       bool                  `json:"is_partial"`
	Cached        bool                  `json:"cached"`
	NativeBalance uint64                `json:"native_balance"`
}

// Syncer is the wallet refresh orchestrator
type Syncer struct {
	store     cache.Store
	pager     PageFetcher
	rewards   RewardAggregator
	portfolio PortfolioClient
	tracker   tracker.Tracker
	events    chan Event
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

// New creates a new syncer. portfolio may be nil when native balance
// lookups are not wanted.
func New(store cache.Store, pageFetcher PageFetcher, rewardAggregator RewardAggregator, portfolio PortfolioClient, refreshTracker tracker.Tracker, logger zerolog.Logger) *Syncer {
	return &Syncer{
		store:     store,
		pager:     pageFetcher,
		rewards:   rewardAggregator,
		portfolio: portfolio,
		tracker:   refreshTracker,
		events:    make(chan Event, 64),
		logger:    logger.With().Str("component", "syncer").Logger(),
	}
}

// Events exposes refresh notifications. The channel is buffered and
// publishes are non-blocking, so an abandoned consumer neither leaks a
// goroutine nor stalls a refresh.
func (s *Syncer) Events() <-chan Event {
	return s.events
}

// RefreshWallet serves the cached snapshot immediately when one exists
// and triggers a background full refresh; with a cold cache the refresh
// runs synchronously. A wallet with zero discoverable accounts is a
// success with empty results, not an error.
func (s *Syncer) RefreshWallet(ctx context.Context, address string) (*RefreshResult, error) {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, address, err)
	}

	log := s.logger.With().Str("wallet", address).Logger()

	cached, err := s.store.GetAll(ctx, address)
	if err != nil {
		log.Warn().Err(err).Msg("Cache read failed, treating as cold cache")
		cached = nil
	}

	native := s.fetchNativeBalance(ctx, address, log)

	if len(cached) > 0 {
		log.Info().Int("accounts", len(cached)).Msg("Serving cached snapshot, refreshing in background")
		s.startBackgroundRefresh(address)
		return &RefreshResult{
			Accounts:      cached,
			Cached:        true,
			NativeBalance: native,
		}, nil
	}

	outcome, err := s.refresh(ctx, address)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		Accounts:      outcome.accounts,
		Partial:       outcome.partial,
		NativeBalance: native,
	}, nil
}

// AggregatedRewards aggregates reward history over the wallet's cached
// account list. The cache is the single source of truth for aggregate
// calculations.
func (s *Syncer) AggregatedRewards(ctx context.Context, address string) (*rewards.Result, error) {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, address, err)
	}

	accounts, err := s.store.GetAll(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached accounts: %w", err)
	}

	return s.rewards.Aggregate(ctx, accounts)
}

// fetchNativeBalance looks up the wallet's native balance. Lookup
// failures are absorbed: the balance is cosmetic next to the stake data
// and must never fail a refresh.
func (s *Syncer) fetchNativeBalance(ctx context.Context, address string, log zerolog.Logger) uint64 {
	if s.portfolio == nil {
		return 0
	}
	amount, err := s.portfolio.GetPortfolio(ctx, address)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch native balance")
		return 0
	}
	return amount
}

// Close waits for in-flight background refreshes to finish
func (s *Syncer) Close() {
	s.wg.Wait()
}

// startBackgroundRefresh spawns one refresh goroutine for the wallet
// unless one is already in flight
func (s *Syncer) startBackgroundRefresh(address string) {
	acquired, err := s.tracker.TryAcquire(context.Background(), address)
	if err != nil {
		s.logger.Warn().Err(err).Str("wallet", address).Msg("Refresh tracker unavailable, skipping background refresh")
		return
	}
	if !acquired {
		s.logger.Debug().Str("wallet", address).Msg("Refresh already in flight")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()
		defer s.tracker.Release(ctx, address)

		if _, err := s.refresh(ctx, address); err != nil {
			s.logger.Error().Err(err).Str("wallet", address).Msg("Background refresh failed")
		}
	}()
}

type refreshOutcome struct {
	accounts       []models.StakeAccount
	partial        bool
	failedPages    int
	failedAccounts int
}

// refresh runs one full sync cycle: discover all pages, replace the
// snapshot, then aggregate rewards over the stored account list. A cache
// write failure aborts the cycle and leaves the prior snapshot
// authoritative.
func (s *Syncer) refresh(ctx context.Context, address string) (*refreshOutcome, error) {
	log := s.logger.With().Str("wallet", address).Logger()
	start := time.Now()

	s.publish(Event{Type: EventRefreshStarted, Wallet: address})

	pageResult, err := s.pager.FetchAll(ctx, address)
	if err != nil {
		s.publish(Event{Type: EventRefreshFailed, Wallet: address, Message: err.Error()})
		return nil, fmt.Errorf("stake account discovery failed: %w", err)
	}

	if err := s.store.ReplaceAll(ctx, address, pageResult.Accounts); err != nil {
		s.publish(Event{Type: EventRefreshFailed, Wallet: address, Message: err.Error()})
		return nil, fmt.Errorf("cache write failed, previous snapshot kept: %w", err)
	}

	// Aggregate over the stored snapshot, not the transient page list
	accounts, err := s.store.GetAll(ctx, address)
	if err != nil {
		log.Warn().Err(err).Msg("Snapshot readback failed, aggregating over fetched list")
		accounts = pageResult.Accounts
	}

	rewardResult, err := s.rewards.Aggregate(ctx, accounts)
	if err != nil {
		s.publish(Event{Type: EventRefreshFailed, Wallet: address, Message: err.Error()})
		return nil, fmt.Errorf("reward aggregation failed: %w", err)
	}

	metrics.RecordWalletRefresh(time.Since(start).Seconds())

	outcome := &refreshOutcome{
		accounts:       accounts,
		partial:        pageResult.Partial || rewardResult.FailedAccounts > 0,
		failedPages:    pageResult.FailedPages,
		failedAccounts: rewardResult.FailedAccounts,
	}

	eventType := EventRefreshCompleted
	if outcome.partial {
		eventType = EventRefreshPartial
	}
	s.publish(Event{
		Type:           eventType,
		Wallet:         address,
		Accounts:       len(accounts),
		FailedPages:    outcome.failedPages,
		FailedAccounts: outcome.failedAccounts,
	})

	log.Info().
		Int("accounts", len(accounts)).
		Int("failed_pages", outcome.failedPages).
		Int("failed_accounts", outcome.failedAccounts).
		Dur("duration", time.Since(start)).
		Msg("Wallet refresh completed")

	return outcome, nil
}

// publish emits an event without blocking; when no consumer keeps up the
// event is dropped
func (s *Syncer) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
