package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SIGNING_SECRET", "test-signing-secret")
	t.Setenv("SESSION_ENCRYPTION_KEY", "test-encryption-key")
	t.Setenv("MYWATT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("unexpected backend URL: %s", cfg.Backend.URL)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("unexpected session TTL: %s", cfg.Session.TTL)
	}
	if cfg.Session.DatabaseURL != "mywatt.sqlite" {
		t.Errorf("unexpected database URL: %s", cfg.Session.DatabaseURL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("MYWATT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SESSION_SIGNING_SECRET", "")
	t.Setenv("SESSION_ENCRYPTION_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when signing secret is missing")
	}

	t.Setenv("SESSION_SIGNING_SECRET", "test-signing-secret")
	if _, err := Load(); err == nil {
		t.Error("expected error when encryption key is missing")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("MYWATT_API_URL", "https://api.example.com")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://localhost/sessions")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.URL != "https://api.example.com" {
		t.Errorf("unexpected backend URL: %s", cfg.Backend.URL)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Session.PostgresURL != "postgres://localhost/sessions" {
		t.Errorf("unexpected postgres URL: %s", cfg.Session.PostgresURL)
	}
	if cfg.Session.TTL != 90*time.Minute {
		t.Errorf("unexpected session TTL: %s", cfg.Session.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestLoad_InvalidTTLKeepsDefault(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected default TTL, got %s", cfg.Session.TTL)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredSecrets(t)

	configPath := filepath.Join(t.TempDir(), "mywatt.yaml")
	yaml := `
backend:
  url: https://yaml.example.com
server:
  listen_addr: ":7070"
`
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("MYWATT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.URL != "https://yaml.example.com" {
		t.Errorf("unexpected backend URL: %s", cfg.Backend.URL)
	}
	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	setRequiredSecrets(t)

	configPath := filepath.Join(t.TempDir(), "mywatt.yaml")
	if err := os.WriteFile(configPath, []byte("backend:\n  url: https://yaml.example.com\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("MYWATT_CONFIG", configPath)
	t.Setenv("MYWATT_API_URL", "https://env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.URL != "https://env.example.com" {
		t.Errorf("env var should win over file, got %s", cfg.Backend.URL)
	}
}
