package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	LogLevel slog.Level

	// Engine
	QuietWindow   time.Duration
	SettleTimeout time.Duration
	RulesFile     string
	HeightRule    string

	// Dictionary lookup
	LookupProvider string
	BingBaseURL    string
	BingAppID      string
	BingMarket     string
	LookupTimeout  time.Duration

	// Phrase cache
	CacheBackend    string
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// Lookup providers.
const (
	ProviderBing      = "bing"
	ProviderMetaphone = "metaphone"
)

// Cache backends.
const (
	CacheMemory    = "memory"
	CacheSQLite    = "sqlite"
	CacheRedis     = "redis"
	CachePathstore = "pathstore"
)

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("IPARUBY_API_KEY"),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		QuietWindow:   envDuration("QUIET_WINDOW", 200*time.Millisecond),
		SettleTimeout: envDuration("SETTLE_TIMEOUT", 30*time.Second),
		RulesFile:     os.Getenv("RULES_FILE"),
		HeightRule:    strings.ToLower(os.Getenv("HEIGHT_RULE")),

		LookupProvider: strings.ToLower(envOr("LOOKUP_PROVIDER", ProviderBing)),
		BingBaseURL:    envOr("BING_BASE_URL", "https://cn.bing.com"),
		BingAppID:      envOr("BING_APP_ID", "371E7B2AF0F9B84EC491D731DF90A55719C7D209"),
		BingMarket:     envOr("BING_MARKET", "zh-cn"),
		LookupTimeout:  envDuration("LOOKUP_TIMEOUT", 10*time.Second),

		CacheBackend:    strings.ToLower(envOr("CACHE_BACKEND", CacheMemory)),
		SQLitePath:      envOr("SQLITE_PATH", "iparuby.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = 200 * time.Millisecond
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 30 * time.Second
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings shared by every entry point.
func (c Config) Validate() error {
	switch c.LookupProvider {
	case ProviderBing:
		if c.BingBaseURL == "" || c.BingAppID == "" {
			return fmt.Errorf("BING_BASE_URL and BING_APP_ID are required for the bing provider")
		}
	case ProviderMetaphone:
	default:
		return fmt.Errorf("unknown LOOKUP_PROVIDER %q", c.LookupProvider)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite cache")
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	case CachePathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore cache")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.HeightRule {
	case "", "zero", "fixed":
	default:
		return fmt.Errorf("HEIGHT_RULE must be zero or fixed, got %q", c.HeightRule)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("IPARUBY_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
