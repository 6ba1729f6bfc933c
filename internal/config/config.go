package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	// HTTP API
	HTTPAddr           string
	RateLimitPerMinute int
	CORSOrigins        []string

	// Telegram, optional
	TelegramToken string

	// Storage
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Job sources
	AdzunaAppID      string
	AdzunaAppKey     string
	AdzunaCountry    string
	AdzunaBaseURL    string
	ReedAPIKey       string
	ReedBaseURL      string
	RemoteOKURL      string
	GoogleAPIKey     string
	GoogleCSEID      string
	GoogleBaseURL    string
	GoogleMaxResults int
	SourceTimeout    time.Duration
	MockFallback     bool

	// Apply simulation
	SimulateMinDelay time.Duration
	SimulateMaxDelay time.Duration

	// Alerts
	AlertSchedule   string
	MaxAlertsPerRun int

	// Logging
	LogLevel string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		// Defaults
		HTTPAddr:           ":8080",
		RateLimitPerMinute: 120,
		CORSOrigins:        []string{"*"},
		StorageDriver:      DriverMemory,
		SQLitePath:         "cv-navigator.db",
		RedisAddr:          "localhost:6379",
		RedisPrefix:        "cvnav:",
		AdzunaCountry:      "in",
		AdzunaBaseURL:      "https://api.adzuna.com/v1/api/jobs",
		ReedBaseURL:        "https://www.reed.co.uk/api/1.0",
		RemoteOKURL:        "https://remoteok.com/api",
		GoogleBaseURL:      "https://www.googleapis.com/customsearch/v1",
		GoogleMaxResults:   25,
		SourceTimeout:      15 * time.Second,
		SimulateMinDelay:   1500 * time.Millisecond,
		SimulateMaxDelay:   3500 * time.Millisecond,
		AlertSchedule:      "@every 30m",
		MaxAlertsPerRun:    10,
		LogLevel:           "info",
	}

	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.RedisPrefix, "REDIS_PREFIX")
	setString(&cfg.AdzunaAppID, "ADZUNA_APP_ID")
	setString(&cfg.AdzunaAppKey, "ADZUNA_APP_KEY")
	setString(&cfg.AdzunaCountry, "ADZUNA_COUNTRY")
	setString(&cfg.AdzunaBaseURL, "ADZUNA_BASE_URL")
	setString(&cfg.ReedAPIKey, "REED_API_KEY")
	setString(&cfg.ReedBaseURL, "REED_BASE_URL")
	setString(&cfg.RemoteOKURL, "REMOTEOK_URL")
	setString(&cfg.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&cfg.GoogleCSEID, "GOOGLE_CSE_ID")
	setString(&cfg.GoogleBaseURL, "GOOGLE_BASE_URL")
	setString(&cfg.AlertSchedule, "ALERT_SCHEDULE")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if err := setInt(&cfg.RedisDB, "REDIS_DB"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.GoogleMaxResults, "GOOGLE_MAX_RESULTS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.MaxAlertsPerRun, "MAX_ALERTS_PER_RUN"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.SourceTimeout, "SOURCE_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.SimulateMinDelay, "SIMULATE_MIN_DELAY"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.SimulateMaxDelay, "SIMULATE_MAX_DELAY"); err != nil {
		return nil, err
	}

	if fallback := os.Getenv("MOCK_FALLBACK"); fallback != "" {
		b, err := strconv.ParseBool(fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid MOCK_FALLBACK: %w", err)
		}
		cfg.MockFallback = b
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is empty")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is empty")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is empty")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.StorageDriver)
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("http address is empty")
	}

	if c.GoogleMaxResults < 1 || c.GoogleMaxResults > 100 {
		return fmt.Errorf("google max results must be between 1 and 100")
	}

	if c.SourceTimeout < time.Second {
		return fmt.Errorf("source timeout too small: %v", c.SourceTimeout)
	}

	if c.SimulateMinDelay < 0 || c.SimulateMaxDelay < c.SimulateMinDelay {
		return fmt.Errorf("invalid simulate delay range: %v..%v", c.SimulateMinDelay, c.SimulateMaxDelay)
	}

	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit must be positive")
	}

	if c.MaxAlertsPerRun < 1 || c.MaxAlertsPerRun > 50 {
		return fmt.Errorf("max alerts per run must be between 1 and 50")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
