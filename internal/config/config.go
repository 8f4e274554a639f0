package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for tunables that rarely need overriding
const (
	DefaultPageSize                   = 40
	DefaultMaxRetries                 = 3
	DefaultRetryDelay                 = 1 * time.Second
	DefaultRequestTimeout             = 10 * time.Second
	DefaultMaxConcurrentExports       = 5
	DefaultMaxConsecutivePageFailures = 3
	DefaultCacheWallets               = 128
)

// Config holds all configuration for stakewatch
type Config struct {
	// Solscan API configuration
	SolscanAPIURL   string
	SolscanAPIToken string

	// Pagination and retry configuration
	PageSize                   int
	MaxRetries                 int
	RetryDelay                 time.Duration
	RequestTimeout             time.Duration
	MaxConcurrentExports       int
	MaxConsecutivePageFailures int

	// Database configuration (optional; in-memory cache is used when unset)
	DBName     string
	DBHost     string
	DBUser     string
	DBPassword string
	DBPort     string
	DBSSLMode  string

	// Redis configuration (optional; in-process refresh tracking when unset)
	RedisURL string

	// In-memory cache capacity (wallets), used when no database is configured
	CacheWallets int

	// Server configuration
	ListenAddr string

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		SolscanAPIURL:   getEnv("SOLSCAN_API_URL", "https://pro-api.solscan.io/v2.0"),
		SolscanAPIToken: getEnv("SOLSCAN_API_TOKEN", ""),
		DBName:          getEnv("DB_NAME", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", ""),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RedisURL:        getEnv("REDIS_URL", ""),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.PageSize, err = parseIntEnv("PAGE_SIZE", DefaultPageSize)
	if err != nil {
		return cfg, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}

	cfg.MaxRetries, err = parseIntEnv("MAX_RETRIES", DefaultMaxRetries)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_RETRIES: %w", err)
	}

	cfg.RetryDelay, err = parseDurationEnv("RETRY_DELAY", DefaultRetryDelay)
	if err != nil {
		return cfg, fmt.Errorf("invalid RETRY_DELAY: %w", err)
	}

	cfg.RequestTimeout, err = parseDurationEnv("REQUEST_TIMEOUT", DefaultRequestTimeout)
	if err != nil {
		return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cfg.MaxConcurrentExports, err = parseIntEnv("MAX_CONCURRENT_EXPORTS", DefaultMaxConcurrentExports)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_CONCURRENT_EXPORTS: %w", err)
	}

	cfg.MaxConsecutivePageFailures, err = parseIntEnv("MAX_CONSECUTIVE_PAGE_FAILURES", DefaultMaxConsecutivePageFailures)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_CONSECUTIVE_PAGE_FAILURES: %w", err)
	}

	cfg.CacheWallets, err = parseIntEnv("CACHE_WALLETS", DefaultCacheWallets)
	if err != nil {
		return cfg, fmt.Errorf("invalid CACHE_WALLETS: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.SolscanAPIToken == "" {
		return fmt.Errorf("SOLSCAN_API_TOKEN is required")
	}

	if c.SolscanAPIURL == "" {
		return fmt.Errorf("SOLSCAN_API_URL is required")
	}

	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1")
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1")
	}

	if c.MaxConcurrentExports < 1 {
		return fmt.Errorf("MAX_CONCURRENT_EXPORTS must be at least 1")
	}

	if c.MaxConsecutivePageFailures < 1 {
		return fmt.Errorf("MAX_CONSECUTIVE_PAGE_FAILURES must be at least 1")
	}

	if c.DBName != "" && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required when DB_NAME is set")
	}

	if c.DBName == "" && c.CacheWallets < 1 {
		return fmt.Errorf("CACHE_WALLETS must be at least 1 when no database is configured")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(str)
}
