package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const inflightKeyPrefix = "stakewatch:refresh_inflight:"

// RedisTracker marks in-flight refreshes in Redis, so deduplication
// holds across multiple stakewatch processes. The TTL doubles as stuck
// refresh recovery.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisTracker creates a Redis-backed tracker
func NewRedisTracker(redisURL string, ttl time.Duration, logger zerolog.Logger) (*RedisTracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis successfully")

	return &RedisTracker{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "refresh_tracker").Logger(),
	}, nil
}

// TryAcquire marks the wallet as refreshing
func (t *RedisTracker) TryAcquire(ctx context.Context, wallet string) (bool, error) {
	acquired, err := t.client.SetNX(ctx, inflightKeyPrefix+wallet, time.Now().Unix(), t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark wallet in-flight: %w", err)
	}

	if acquired {
		t.logger.Debug().Str("wallet", wallet).Msg("Marked wallet as in-flight")
	}
	return acquired, nil
}

// Release clears the in-flight mark
func (t *RedisTracker) Release(ctx context.Context, wallet string) {
	if err := t.client.Del(ctx, inflightKeyPrefix+wallet).Err(); err != nil {
		t.logger.Warn().Err(err).Str("wallet", wallet).Msg("Failed to clear in-flight mark")
	}
}

// Close closes the Redis connection
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
