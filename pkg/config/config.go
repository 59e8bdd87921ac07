package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Quote cache
	CacheMaxEntries      int
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration
	CacheTrackStats      bool

	// Retry
	RetryMaxRetries int
	RetryBaseDelay  time.Duration

	// Batching
	BatchSize  int
	BatchDelay time.Duration

	// Providers
	BrapiBaseURL   string
	BrapiToken     string
	FinnhubBaseURL string
	FinnhubToken   string

	// Error log
	ErrlogMode string // "memory", "file" or "postgres"
	ErrlogPath string

	// Watchlist streaming
	WatchSymbols         []string
	WatchRefreshInterval time.Duration

	// Postgres (errlog mode "postgres")
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Cache defaults: quotes are short-lived, a few minutes of TTL
		// is plenty
		CacheMaxEntries:      getIntOrDefault("CACHE_MAX_ENTRIES", 1000),
		CacheTTL:             getDurationOrDefault("CACHE_TTL", 2*time.Minute),
		CacheCleanupInterval: getDurationOrDefault("CACHE_CLEANUP_INTERVAL", time.Minute),
		CacheTrackStats:      getBoolOrDefault("CACHE_TRACK_STATS", true),

		// Retry defaults
		RetryMaxRetries: getIntOrDefault("RETRY_MAX_RETRIES", 3),
		RetryBaseDelay:  getDurationOrDefault("RETRY_BASE_DELAY", 500*time.Millisecond),

		// Batch defaults
		BatchSize:  getIntOrDefault("BATCH_SIZE", 10),
		BatchDelay: getDurationOrDefault("BATCH_DELAY", 250*time.Millisecond),

		// Provider defaults
		BrapiBaseURL:   getEnvOrDefault("BRAPI_BASE_URL", "https://brapi.dev"),
		BrapiToken:     os.Getenv("BRAPI_TOKEN"),
		FinnhubBaseURL: getEnvOrDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		FinnhubToken:   os.Getenv("FINNHUB_TOKEN"),

		// Error log defaults
		ErrlogMode: getEnvOrDefault("ERRLOG_MODE", "memory"),
		ErrlogPath: getEnvOrDefault("ERRLOG_PATH", "quotegate_errors.json"),

		// Watchlist defaults
		WatchSymbols:         getListOrDefault("WATCH_SYMBOLS", nil),
		WatchRefreshInterval: getDurationOrDefault("WATCH_REFRESH_INTERVAL", 30*time.Second),

		// Postgres defaults
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "quotegate"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "quotegate123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "quotegate"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.BrapiBaseURL == "" {
		return fmt.Errorf("BRAPI_BASE_URL cannot be empty")
	}

	if c.FinnhubBaseURL == "" {
		return fmt.Errorf("FINNHUB_BASE_URL cannot be empty")
	}

	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must be >= 0, got %d", c.RetryMaxRetries)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}

	switch c.ErrlogMode {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("ERRLOG_MODE must be 'memory', 'file' or 'postgres', got %q", c.ErrlogMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
