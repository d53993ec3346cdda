package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads config.yaml from the promptcraft home, then applies a .env file
// (when present) and PROMPTCRAFT_* environment overrides.
func Load(envFiles ...string) (*LocalConfig, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		return nil, err
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files without overriding variables already
// set. Missing files are skipped. With no arguments it tries ./.env.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from PROMPTCRAFT_* environment variables. The
// connection URLs also honor the unprefixed DATABASE_URL and RABBITMQ_URL;
// the prefixed names win when both are set.
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("PROMPTCRAFT_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("PROMPTCRAFT_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("PROMPTCRAFT_LOG_LEVEL", cfg.Daemon.LogLevel)
	cfg.Daemon.RatePerSecond = getEnvInt("PROMPTCRAFT_RATE_PER_SECOND", cfg.Daemon.RatePerSecond)

	cfg.Evaluator.MinChars = getEnvInt("PROMPTCRAFT_MIN_CHARS", cfg.Evaluator.MinChars)
	cfg.Evaluator.MinWords = getEnvInt("PROMPTCRAFT_MIN_WORDS", cfg.Evaluator.MinWords)
	cfg.Evaluator.PartialCreditCap = getEnvInt("PROMPTCRAFT_PARTIAL_CREDIT_CAP", cfg.Evaluator.PartialCreditCap)

	cfg.Catalog.Path = getEnv("PROMPTCRAFT_CATALOG_PATH", cfg.Catalog.Path)

	cfg.Storage.Driver = getEnv("PROMPTCRAFT_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getEnv("PROMPTCRAFT_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresURL = getEnv("PROMPTCRAFT_DATABASE_URL", getEnv("DATABASE_URL", cfg.Storage.PostgresURL))
	cfg.Storage.RetentionDays = getEnvInt("PROMPTCRAFT_RETENTION_DAYS", cfg.Storage.RetentionDays)

	cfg.Queue.Enabled = getEnvBool("PROMPTCRAFT_QUEUE_ENABLED", cfg.Queue.Enabled)
	cfg.Queue.URL = getEnv("PROMPTCRAFT_RABBITMQ_URL", getEnv("RABBITMQ_URL", cfg.Queue.URL))
	cfg.Queue.Consume = getEnvBool("PROMPTCRAFT_QUEUE_CONSUME", cfg.Queue.Consume)

	cfg.Logging.File = getEnv("PROMPTCRAFT_LOG_FILE", cfg.Logging.File)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
