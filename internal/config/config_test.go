package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabasePath != "./reelplay.db" {
		t.Errorf("database defaults = %q, %q", cfg.DatabaseType, cfg.DatabasePath)
	}
	if cfg.TokenDuration != 30*24*time.Hour {
		t.Errorf("TokenDuration = %v", cfg.TokenDuration)
	}
	if cfg.SubmitRateLimit != 30 {
		t.Errorf("SubmitRateLimit = %d", cfg.SubmitRateLimit)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
server_port = "9090"
database_type = "postgres"
database_url = "postgres://localhost/reelplay"
allowed_origins = ["https://reelplay.example"]
submit_rate_limit = 10
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" || cfg.DatabaseURL != "postgres://localhost/reelplay" {
		t.Errorf("database = %q, %q", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://reelplay.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.SubmitRateLimit != 10 || cfg.LogLevel != "debug" {
		t.Errorf("rate/level = %d, %q", cfg.SubmitRateLimit, cfg.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "3000")
	t.Setenv("DB_TYPE", "mysql")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`server_port = "9090"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, env should win", cfg.ServerPort)
	}
	if cfg.DatabaseType != "mysql" {
		t.Errorf("DatabaseType = %q", cfg.DatabaseType)
	}
}

func TestMissingFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err != nil {
		t.Errorf("Load missing file: %v", err)
	}
}

func TestMalformedFileRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`server_port = [broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Error("Load without JWT_SECRET succeeded")
	}
}
