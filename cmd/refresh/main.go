// One-shot refresh of a single wallet: discovers stake accounts, prints
// them, and prints the aggregated reward series. Useful for eyeballing a
// wallet without running the full service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/wnt/stakewatch/internal/cache"
	"github.com/wnt/stakewatch/internal/config"
	"github.com/wnt/stakewatch/internal/logger"
	"github.com/wnt/stakewatch/internal/pager"
	"github.com/wnt/stakewatch/internal/rewards"
	"github.com/wnt/stakewatch/internal/solscan"
	"github.com/wnt/stakewatch/internal/syncer"
	"github.com/wnt/stakewatch/internal/tracker"
)

func main() {
	var walletAddress string
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.StringVar(&walletAddress, "wallet", "", "Wallet address to refresh (required)")
	flag.Parse()

	if walletAddress == "" {
		log.Fatal("Usage: refresh -wallet <wallet_address> [-envFile <path>]")
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger := logger.New(cfg.LogLevel)

	store, err := cache.NewMemoryStore(cfg.CacheWallets)
	if err != nil {
		log.Fatalf("Failed to create memory store: %v", err)
	}

	client := solscan.NewClient(cfg.SolscanAPIToken, baseLogger,
		solscan.WithBaseURL(cfg.SolscanAPIURL),
		solscan.WithTimeout(cfg.RequestTimeout),
		solscan.WithRetries(cfg.MaxRetries, cfg.RetryDelay),
	)

	pageAggregator := pager.NewAggregator(client, cfg.PageSize, cfg.MaxConsecutivePageFailures, baseLogger)
	rewardAggregator := rewards.NewAggregator(client, nil, cfg.MaxConcurrentExports, baseLogger)
	sy := syncer.New(store, pageAggregator, rewardAggregator, client, tracker.NewMemoryTracker(15*time.Minute), baseLogger)

	ctx := context.Background()

	result, err := sy.RefreshWallet(ctx, walletAddress)
	if err != nil {
		log.Fatalf("Refresh failed: %v", err)
	}

	fmt.Printf("Wallet %s\n", walletAddress)
	fmt.Printf("Native balance: %.4f SOL\n", float64(result.NativeBalance)/float64(solana.LAMPORTS_PER_SOL))
	fmt.Printf("Stake accounts: %d (partial: %t)\n\n", len(result.Accounts), result.Partial)

	for _, account := range result.Accounts {
		fmt.Printf("  %s  %-12s  %.4f SOL delegated  voter %s\n",
			account.StakeAccount,
			account.Status,
			float64(account.DelegatedStakeAmount)/float64(solana.LAMPORTS_PER_SOL),
			account.Voter,
		)
	}

	rewardResult, err := sy.AggregatedRewards(ctx, walletAddress)
	if err != nil {
		log.Fatalf("Reward aggregation failed: %v", err)
	}

	// The aggregator returns an unordered map; sort keys for display
	keys := make([]string, 0, len(rewardResult.Points))
	for key := range rewardResult.Points {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var total float64
	fmt.Printf("\nRewards (%d points, %d records, %d accounts failed):\n",
		len(rewardResult.Points), rewardResult.RecordCount, rewardResult.FailedAccounts)
	for _, key := range keys {
		amount := rewardResult.Points[key]
		total += amount
		fmt.Printf("  %-40s %.4f SOL\n", key, amount/float64(solana.LAMPORTS_PER_SOL))
	}
	fmt.Printf("\nTotal rewards: %.4f SOL\n", total/float64(solana.LAMPORTS_PER_SOL))
}
