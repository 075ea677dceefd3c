package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the afftrack application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// AnalyticsConfig holds the knobs for the reporting engine.
type AnalyticsConfig struct {
	// Timezone is the IANA zone bucket keys are resolved in. Records are
	// stored in UTC; the dashboard thinks in this zone.
	Timezone string
	// BaseCurrency is the currency all monetary fields are normalized to.
	BaseCurrency string
	// EurUsdRate converts EUR amounts into USD when a record carries no
	// usable exchange rate of its own.
	EurUsdRate float64
	// EpochStart is the first tracked day, used as the lower bound of the
	// "all" range.
	EpochStart string
	// ReportCacheTTL bounds how long a computed dashboard response may be
	// served from Redis. Zero disables caching.
	ReportCacheTTL time.Duration
}

// Location resolves the configured timezone, falling back to UTC if the
// zone name is unknown.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Epoch parses the configured epoch start in the reference timezone.
func (a AnalyticsConfig) Epoch() time.Time {
	t, err := time.ParseInLocation("2006-01-02", a.EpochStart, a.Location())
	if err != nil {
		return time.Date(2020, 1, 1, 0, 0, 0, 0, a.Location())
	}
	return t
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("AFFTRACK_HTTP_ADDR", ":8080"),
			Env:             getEnv("AFFTRACK_ENV", "development"),
			ShutdownTimeout: getDurationEnv("AFFTRACK_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("AFFTRACK_DB_HOST", "localhost"),
			Port:     getIntEnv("AFFTRACK_DB_PORT", 5432),
			User:     getEnv("AFFTRACK_DB_USER", "afftrack"),
			Password: getEnv("AFFTRACK_DB_PASSWORD", "afftrack_secret"),
			DBName:   getEnv("AFFTRACK_DB_NAME", "afftrack"),
			SSLMode:  getEnv("AFFTRACK_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("AFFTRACK_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("AFFTRACK_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("AFFTRACK_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("AFFTRACK_REDIS_PASSWORD", ""),
			DB:       getIntEnv("AFFTRACK_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("AFFTRACK_AUTH_ENABLED", false),
			MasterKey: getEnv("AFFTRACK_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("AFFTRACK_AUTH_SKIP_PATHS", []string{"/health", "/metrics"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("AFFTRACK_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("AFFTRACK_RATE_LIMIT_RPS", 100),
			Burst:   getIntEnv("AFFTRACK_RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("AFFTRACK_LOG_LEVEL", "info"),
			Format: getEnv("AFFTRACK_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("AFFTRACK_METRICS_ENABLED", true),
			Path:    getEnv("AFFTRACK_METRICS_PATH", "/metrics"),
		},
		Analytics: AnalyticsConfig{
			Timezone:       getEnv("AFFTRACK_ANALYTICS_TIMEZONE", "Europe/Amsterdam"),
			BaseCurrency:   getEnv("AFFTRACK_ANALYTICS_BASE_CURRENCY", "USD"),
			EurUsdRate:     getFloatEnv("AFFTRACK_ANALYTICS_EUR_USD_RATE", 1.17),
			EpochStart:     getEnv("AFFTRACK_ANALYTICS_EPOCH_START", "2020-01-01"),
			ReportCacheTTL: getDurationEnv("AFFTRACK_ANALYTICS_REPORT_CACHE_TTL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("AFFTRACK_API_KEY_MASTER is required when auth is enabled")
	}
	if c.Analytics.EurUsdRate <= 0 {
		return fmt.Errorf("AFFTRACK_ANALYTICS_EUR_USD_RATE must be positive")
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("invalid AFFTRACK_ANALYTICS_TIMEZONE %q: %w", c.Analytics.Timezone, err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
