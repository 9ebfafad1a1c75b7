// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port string
	Env  string

	// Backends
	UseMemoryStore bool
	SkipAuth       bool
	ProjectID      string

	// Local cache
	LocalCache     string
	SQLiteDBPath   string
	CacheKeyPrefix string
	LogoutPolicy   string

	// Remote documents
	CanonicalCollection string
	LegacyCollection    string
	RemoteTimeout       time.Duration

	// Export archives
	ExportBucket string
	ExportDir    string

	LogLevel string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("ENV", "")
	return &Config{
		Port: getEnv("PORT", "8111"),
		Env:  env,

		UseMemoryStore: getEnvBool("USE_MEMORY_STORE", false) || env == "local",
		SkipAuth:       getEnvBool("SKIP_AUTH", false),
		ProjectID:      getEnv("GOOGLE_CLOUD_PROJECT", ""),

		LocalCache:     getEnv("LOCAL_CACHE", "memory"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/budgetsync.db"),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", "budgetTrackerData"),
		LogoutPolicy:   getEnv("LOGOUT_POLICY", "retain"),

		CanonicalCollection: getEnv("CANONICAL_COLLECTION", "budgets"),
		LegacyCollection:    getEnv("LEGACY_COLLECTION", "budget"),
		RemoteTimeout:       getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		ExportBucket: getEnv("EXPORT_BUCKET", ""),
		ExportDir:    getEnv("EXPORT_DIR", "./exports"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LocalCache {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite cache")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid local cache '%s': must be one of [memory sqlite]", c.LocalCache))
	}

	if c.LogoutPolicy != "retain" && c.LogoutPolicy != "purge" {
		errors = append(errors, fmt.Sprintf("invalid logout policy '%s': must be one of [retain purge]", c.LogoutPolicy))
	}

	if c.CacheKeyPrefix == "" || strings.Contains(c.CacheKeyPrefix, ":") {
		errors = append(errors, fmt.Sprintf("invalid cache key prefix '%s': must be non-empty and contain no ':'", c.CacheKeyPrefix))
	}

	if c.CanonicalCollection == "" || c.LegacyCollection == "" {
		errors = append(errors, "canonical and legacy collections must both be set")
	} else if c.CanonicalCollection == c.LegacyCollection {
		errors = append(errors, fmt.Sprintf("canonical and legacy collections must differ, both are '%s'", c.CanonicalCollection))
	}

	if c.RemoteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be positive", c.RemoteTimeout))
	}

	if !c.UseMemoryStore && c.ProjectID == "" {
		errors = append(errors, "GOOGLE_CLOUD_PROJECT is required unless the memory store is used")
	}

	if c.ExportBucket == "" && c.ExportDir == "" {
		errors = append(errors, "one of EXPORT_BUCKET or EXPORT_DIR must be set")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Level returns the configured log level, info when it is invalid.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of [debug info warn error]", s)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
