// Package config loads companion-service configuration from an optional
// TOML file with environment-variable overrides layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds companion-service configuration.
type Config struct {
	ServerPort string `toml:"server_port"`

	// DatabaseType selects the dialect: sqlite (default), postgres, mysql.
	DatabaseType string `toml:"database_type"`
	DatabaseURL  string `toml:"database_url"`
	DatabasePath string `toml:"database_path"`

	JWTSecret     string        `toml:"jwt_secret"`
	TokenDuration time.Duration `toml:"token_duration"`

	PuzzleDir string `toml:"puzzle_dir"`

	AllowedOrigins []string `toml:"allowed_origins"`

	// SubmitRateLimit is requests per minute per IP on submission routes.
	SubmitRateLimit int `toml:"submit_rate_limit"`

	SESRegion    string `toml:"ses_region"`
	SESFromEmail string `toml:"ses_from_email"`
	SESFromName  string `toml:"ses_from_name"`

	LogLevel string `toml:"log_level"`
}

// Load reads the optional config file, then applies env overrides and
// defaults. A missing file is fine; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerPort:      "8080",
		DatabaseType:    "sqlite",
		DatabasePath:    "./reelplay.db",
		TokenDuration:   30 * 24 * time.Hour,
		PuzzleDir:       "./puzzles",
		AllowedOrigins:  []string{"*"},
		SubmitRateLimit: 30,
		SESFromName:     "Reelplay",
		LogLevel:        "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.ServerPort = getEnv("PORT", cfg.ServerPort)
	cfg.DatabaseType = getEnv("DB_TYPE", cfg.DatabaseType)
	cfg.DatabaseURL = getEnv("DB_URL", cfg.DatabaseURL)
	cfg.DatabasePath = getEnv("DB_PATH", cfg.DatabasePath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.PuzzleDir = getEnv("PUZZLE_DIR", cfg.PuzzleDir)
	cfg.SESRegion = getEnv("SES_REGION", cfg.SESRegion)
	cfg.SESFromEmail = getEnv("SES_FROM_EMAIL", cfg.SESFromEmail)
	cfg.SESFromName = getEnv("SES_FROM_NAME", cfg.SESFromName)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
