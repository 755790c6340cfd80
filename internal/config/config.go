// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty selects the embedded bolt store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// BoltPath is the embedded store file, used when DatabaseURL is empty.
	BoltPath string `mapstructure:"BOLT_PATH"`
	// APIKey is the shared secret agents present in X-API-Key. When empty the
	// server starts but refuses authenticated traffic with 503.
	APIKey string `mapstructure:"API_KEY"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317).
	// Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// UnwantedPatternsFile overrides the embedded unwanted-software list.
	UnwantedPatternsFile string `mapstructure:"UNWANTED_PATTERNS_FILE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BOLT_PATH", "inventory.db")
	v.SetDefault("API_KEY", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("UNWANTED_PATTERNS_FILE", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DatabaseURL == "" && cfg.BoltPath == "" {
		return nil, errors.New("config: BOLT_PATH must be set when DATABASE_URL is empty")
	}
	if cfg.Env == "production" && cfg.APIKey == "" {
		return nil, errors.New("config: API_KEY must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// UsePostgres reports whether the Postgres backend is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}
