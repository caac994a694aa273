package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the engine.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port     string
	Env      string // development, staging, production
	Timezone string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Sales-tracking feed
	Feed FeedConfig

	// Raw feed archive
	Archive ArchiveConfig

	// Evaluation engine
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FeedConfig holds the external sales-tracking API settings and the
// service-identity credentials used to call it.
type FeedConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	RatePerSec   int
	Timeout      time.Duration
}

// ArchiveConfig holds the S3-compatible bucket used to keep raw feed payloads.
type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// EngineConfig points at the engine YAML and overrides its worker count.
type EngineConfig struct {
	ConfigPath string
	Workers    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		Timezone: getEnv("TZ_NAME", "Europe/Paris"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Feed: FeedConfig{
			BaseURL:      getEnv("FEED_BASE_URL", "http://localhost:3000"),
			TokenURL:     getEnv("FEED_TOKEN_URL", ""),
			ClientID:     getEnv("FEED_CLIENT_ID", ""),
			ClientSecret: getEnv("FEED_CLIENT_SECRET", ""),
			Scopes:       getEnvAsList("FEED_SCOPES"),
			RatePerSec:   getEnvAsInt("FEED_RATE_PER_SEC", 5),
			Timeout:      getEnvAsDuration("FEED_TIMEOUT", "30s"),
		},

		Archive: ArchiveConfig{
			Enabled:         getEnvAsBool("ARCHIVE_ENABLED", false),
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		},

		Engine: EngineConfig{
			ConfigPath: getEnv("ENGINE_CONFIG", ""),
			Workers:    getEnvAsInt("EVAL_WORKERS", 0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return &ValidationError{Field: "DATABASE_URL", Message: "is required"}
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return &ValidationError{Field: "ENV", Message: "must be one of: development, staging, production"}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &ValidationError{Field: "TZ_NAME", Message: err.Error()}
	}

	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return &ValidationError{Field: "ARCHIVE_BUCKET", Message: "is required when ARCHIVE_ENABLED=true"}
	}

	// The feed can run anonymously against a local stub, but a half-configured
	// client-credentials setup is always a mistake.
	if c.Feed.TokenURL != "" && (c.Feed.ClientID == "" || c.Feed.ClientSecret == "") {
		return &ValidationError{Field: "FEED_CLIENT_ID", Message: "client id and secret are required with FEED_TOKEN_URL"}
	}

	return nil
}

// ValidationError describes a single invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
