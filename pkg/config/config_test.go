package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.CacheCleanupInterval)
	assert.True(t, cfg.CacheTrackStats)
	assert.Equal(t, 3, cfg.RetryMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchDelay)
	assert.Equal(t, "https://brapi.dev", cfg.BrapiBaseURL)
	assert.Equal(t, "https://finnhub.io/api/v1", cfg.FinnhubBaseURL)
	assert.Equal(t, "memory", cfg.ErrlogMode)
	assert.Empty(t, cfg.WatchSymbols)
	assert.Equal(t, 30*time.Second, cfg.WatchRefreshInterval)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("CACHE_TRACK_STATS", "false")
	t.Setenv("RETRY_MAX_RETRIES", "5")
	t.Setenv("BATCH_SIZE", "4")
	t.Setenv("BRAPI_TOKEN", "br-token")
	t.Setenv("FINNHUB_TOKEN", "fh-token")
	t.Setenv("ERRLOG_MODE", "file")
	t.Setenv("ERRLOG_PATH", "/tmp/errors.json")
	t.Setenv("WATCH_SYMBOLS", "PETR4, AAPL ,,VALE3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.CacheTrackStats)
	assert.Equal(t, 5, cfg.RetryMaxRetries)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, "br-token", cfg.BrapiToken)
	assert.Equal(t, "fh-token", cfg.FinnhubToken)
	assert.Equal(t, "file", cfg.ErrlogMode)
	assert.Equal(t, "/tmp/errors.json", cfg.ErrlogPath)
	assert.Equal(t, []string{"PETR4", "AAPL", "VALE3"}, cfg.WatchSymbols)
}

func TestLoadFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_MAX_ENTRIES", "lots")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("CACHE_TRACK_STATS", "yep")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.CacheTrackStats)
}

func TestLoadFromEnv_InvalidErrlogMode(t *testing.T) {
	t.Setenv("ERRLOG_MODE", "carrier-pigeon")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERRLOG_MODE")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			HTTPPort:        "8080",
			BrapiBaseURL:    "https://brapi.dev",
			FinnhubBaseURL:  "https://finnhub.io/api/v1",
			RetryMaxRetries: 3,
			BatchSize:       10,
			ErrlogMode:      "memory",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "empty-port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "empty-brapi-url",
			mutate:  func(c *Config) { c.BrapiBaseURL = "" },
			wantErr: "BRAPI_BASE_URL",
		},
		{
			name:    "empty-finnhub-url",
			mutate:  func(c *Config) { c.FinnhubBaseURL = "" },
			wantErr: "FINNHUB_BASE_URL",
		},
		{
			name:    "negative-retries",
			mutate:  func(c *Config) { c.RetryMaxRetries = -1 },
			wantErr: "RETRY_MAX_RETRIES",
		},
		{
			name:    "zero-batch-size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: "BATCH_SIZE",
		},
		{
			name:    "bad-errlog-mode",
			mutate:  func(c *Config) { c.ErrlogMode = "syslog" },
			wantErr: "ERRLOG_MODE",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
