package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"adlens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. URL empty means
// persistence is disabled and the API runs stateless.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// DataConfig holds default data-file settings for the CLI
type DataConfig struct {
	File         string
	LookbackDays int
}

// Load reads configuration from a .env file (if present) and environment
// variables, then validates it.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		},
		Data: DataConfig{
			File:         os.Getenv("DATA_FILE"),
			LookbackDays: getEnvInt("LOOKBACK_DAYS", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	if c.Data.LookbackDays <= 0 {
		return errors.ConfigInvalid("LOOKBACK_DAYS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
