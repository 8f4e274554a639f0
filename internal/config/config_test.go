package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOLSCAN_API_TOKEN", "test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://pro-api.solscan.io/v2.0", cfg.SolscanAPIURL)
	assert.Equal(t, "test-token", cfg.SolscanAPIToken)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultMaxConcurrentExports, cfg.MaxConcurrentExports)
	assert.Equal(t, DefaultMaxConsecutivePageFailures, cfg.MaxConsecutivePageFailures)
	assert.Equal(t, DefaultCacheWallets, cfg.CacheWallets)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DBName)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SOLSCAN_API_TOKEN", "test-token")
	t.Setenv("SOLSCAN_API_URL", "http://localhost:9999")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("MAX_CONCURRENT_EXPORTS", "10")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.SolscanAPIURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10, cfg.MaxConcurrentExports)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing token",
			env:     map[string]string{"SOLSCAN_API_TOKEN": ""},
			wantErr: "SOLSCAN_API_TOKEN is required",
		},
		{
			name: "bad page size",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"PAGE_SIZE":         "0",
			},
			wantErr: "PAGE_SIZE must be at least 1",
		},
		{
			name: "unparseable retry delay",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"RETRY_DELAY":       "soon",
			},
			wantErr: "invalid RETRY_DELAY",
		},
		{
			name: "unparseable max retries",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"MAX_RETRIES":       "three",
			},
			wantErr: "invalid MAX_RETRIES",
		},
		{
			name: "db without user",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"DB_NAME":           "stakewatch",
			},
			wantErr: "DB_USER is required when DB_NAME is set",
		},
		{
			name: "bad log level",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"LOG_LEVEL":         "verbose",
			},
			wantErr: "invalid LOG_LEVEL",
		},
		{
			name: "zero cache capacity without database",
			env: map[string]string{
				"SOLSCAN_API_TOKEN": "x",
				"CACHE_WALLETS":     "0",
			},
			wantErr: "CACHE_WALLETS must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithDatabase(t *testing.T) {
	t.Setenv("SOLSCAN_API_TOKEN", "test-token")
	t.Setenv("DB_NAME", "stakewatch")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stakewatch", cfg.DBName)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
}
