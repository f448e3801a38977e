package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the dashboard
type Config struct {
	// Backend holds the MyWatt backend API configuration
	Backend BackendConfig `yaml:"backend"`

	// Server holds the HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Session holds session store and cookie configuration
	Session SessionConfig `yaml:"session"`

	// Logging holds logging-related configuration
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig holds the upstream MyWatt API configuration
type BackendConfig struct {
	URL string `yaml:"url"` // Base URL of the MyWatt backend (e.g. http://localhost:8000)
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	CORSOrigin    string `yaml:"cors_origin"` // Allowed origin for the /data endpoints
	TemplatesGlob string `yaml:"templates_glob"`
}

// SessionConfig holds session store and cookie configuration
type SessionConfig struct {
	// SigningSecret signs the session cookie. Required.
	SigningSecret string `yaml:"signing_secret"`
	// EncryptionKey seals bearer tokens at rest (64 hex chars = 32 bytes). Required.
	EncryptionKey string `yaml:"encryption_key"`
	// TTL is the session lifetime
	TTL time.Duration `yaml:"ttl"`
	// DatabaseURL is the SQLite file backing the session store (default backend)
	DatabaseURL string `yaml:"database_url"`
	// PostgresURL, when set, selects the PostgreSQL session store instead
	PostgresURL string `yaml:"postgres_url"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

const defaultSessionTTL = 24 * time.Hour

// Load loads configuration from environment variables, with an optional
// mywatt.yaml file applied first so env vars always win.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := &Config{
		Backend: BackendConfig{URL: "http://localhost:8000"},
		Server: ServerConfig{
			ListenAddr:    ":8080",
			CORSOrigin:    "http://localhost:8080",
			TemplatesGlob: "web/templates/*.html",
		},
		Session: SessionConfig{TTL: defaultSessionTTL, DatabaseURL: "mywatt.sqlite"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	if err := applyFile(cfg, configFilePath()); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if cfg.Session.SigningSecret == "" {
		return nil, fmt.Errorf("SESSION_SIGNING_SECRET is required")
	}
	if cfg.Session.EncryptionKey == "" {
		return nil, fmt.Errorf("SESSION_ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("MYWATT_CONFIG"); path != "" {
		return path
	}
	return "mywatt.yaml"
}

// applyFile overlays values from a YAML config file, if one exists
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays values from environment variables
func applyEnv(cfg *Config) {
	setString(&cfg.Backend.URL, "MYWATT_API_URL")
	setString(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.Server.TemplatesGlob, "TEMPLATES_GLOB")
	setString(&cfg.Session.SigningSecret, "SESSION_SIGNING_SECRET")
	setString(&cfg.Session.EncryptionKey, "SESSION_ENCRYPTION_KEY")
	setString(&cfg.Session.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Session.PostgresURL, "POSTGRES_URL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			cfg.Session.TTL = ttl
		}
	}
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
