package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wnt/stakewatch/internal/cache"
	"github.com/wnt/stakewatch/internal/config"
	"github.com/wnt/stakewatch/internal/database"
	"github.com/wnt/stakewatch/internal/logger"
	"github.com/wnt/stakewatch/internal/pager"
	"github.com/wnt/stakewatch/internal/rewards"
	"github.com/wnt/stakewatch/internal/server"
	"github.com/wnt/stakewatch/internal/solscan"
	"github.com/wnt/stakewatch/internal/syncer"
	"github.com/wnt/stakewatch/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// trackerTTL bounds how long a crashed refresh can hold a wallet's
// in-flight mark
const trackerTTL = 15 * time.Minute

func main() {
	// Parse command-line arguments
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.Parse()

	// Load environment variables from the specified file
	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger := logger.New(cfg.LogLevel)

	// Pick the cache store: postgres when configured, bounded in-memory
	// LRU otherwise
	var store cache.Store
	var sink rewards.RecordSink
	if cfg.DBName != "" {
		db, err := database.Connect(cfg)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		gormStore := cache.NewGormStore(db, baseLogger)
		store = gormStore
		sink = gormStore
	} else {
		memStore, err := cache.NewMemoryStore(cfg.CacheWallets)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to create memory store")
		}
		store = memStore
		baseLogger.Warn().Msg("No database configured, snapshots are held in memory only")
	}

	client := solscan.NewClient(cfg.SolscanAPIToken, baseLogger,
		solscan.WithBaseURL(cfg.SolscanAPIURL),
		solscan.WithTimeout(cfg.RequestTimeout),
		solscan.WithRetries(cfg.MaxRetries, cfg.RetryDelay),
	)

	var refreshTracker tracker.Tracker
	if cfg.RedisURL != "" {
		redisTracker, err := tracker.NewRedisTracker(cfg.RedisURL, trackerTTL, baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisTracker.Close()
		refreshTracker = redisTracker
	} else {
		refreshTracker = tracker.NewMemoryTracker(trackerTTL)
	}

	pageAggregator := pager.NewAggregator(client, cfg.PageSize, cfg.MaxConsecutivePageFailures, baseLogger)
	rewardAggregator := rewards.NewAggregator(client, sink, cfg.MaxConcurrentExports, baseLogger)
	sy := syncer.New(store, pageAggregator, rewardAggregator, client, refreshTracker, baseLogger)

	srv := server.New(sy, cfg.ListenAddr, baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Consume refresh events; this is where a presentation layer would
	// hook in notifications
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-sy.Events():
				baseLogger.Info().
					Str("event", string(ev.Type)).
					Str("wallet", ev.Wallet).
					Int("accounts", ev.Accounts).
					Int("failed_pages", ev.FailedPages).
					Int("failed_accounts", ev.FailedAccounts).
					Msg("Refresh event")
			}
		}
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		baseLogger.Error().Err(err).Msg("Server exited with error")
	}

	// Let in-flight background refreshes finish their cache writes
	sy.Close()
	baseLogger.Info().Msg("Shutdown complete")
}
