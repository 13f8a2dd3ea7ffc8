package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the process configuration for the neom binaries.
type Config struct {
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Preview  PreviewConfig
	Coverage CoverageConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// DatabaseConfig selects the entity store: PostgreSQL when URL is set, else
// SQLite when SQLitePath is set, else memory.
type DatabaseConfig struct {
	URL        string
	SQLitePath string
	Table      string
}

// RedisConfig configures the entity cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type PreviewConfig struct {
	Addr   string
	Minify bool
}

type CoverageConfig struct {
	// Threshold is the default minimum total coverage, in percent.
	Threshold float64
}

// FromEnv builds a Config from NEOM_* environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Log: LogConfig{
			Level:  getString("NEOM_LOG_LEVEL", "info"),
			Format: getString("NEOM_LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			URL:        os.Getenv("NEOM_DATABASE_URL"),
			SQLitePath: os.Getenv("NEOM_SQLITE_PATH"),
			Table:      getString("NEOM_DATABASE_TABLE", "entities"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("NEOM_REDIS_URL"),
			PoolSize:     getInt("NEOM_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("NEOM_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("NEOM_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("NEOM_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("NEOM_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getDuration("NEOM_CACHE_TTL", 5*time.Minute),
		},
		Preview: PreviewConfig{
			Addr:   getString("NEOM_PREVIEW_ADDR", ":8080"),
			Minify: os.Getenv("NEOM_KIT_MINIFY") == "true",
		},
		Coverage: CoverageConfig{
			Threshold: getFloat("NEOM_COVERAGE_THRESHOLD", 80),
		},
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
