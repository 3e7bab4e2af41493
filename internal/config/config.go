// Package config loads runtime configuration for the pickup-run API from environment variables.
// The same binary runs locally, in CI, and in production; only the environment changes.
// A .env file in the working directory is loaded first for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	// godotenv copies KEY=value pairs from .env into the process environment.
	// Variables that are already set win, so real deployment settings are never overridden.
	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "pickup-run-development-secret"

// Config holds every setting the server reads at startup.
type Config struct {
	Port           string        // TCP port for the HTTP server (e.g. "8080")
	Env            string        // "development", "staging" or "production"
	DatabaseURL    string        // PostgreSQL connection string
	JWTSecret      string        // HMAC key used to sign access tokens
	TokenTTL       time.Duration // How long an issued access token stays valid
	RedisAddr      string        // host:port of Redis for token revocation; empty keeps revocations in memory
	LogLevel       string        // logrus level name: debug, info, warn, error
	MigrationsPath string        // golang-migrate source URL, e.g. "file://migrations"
}

// IsDevelopment reports whether the server is running on a developer machine.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from the environment and fills in defaults for optional keys.
// It returns an error when a value is present but malformed or when a required key is missing.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ttl := 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       ttl,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}
	// Local runs may skip JWT_SECRET; tokens signed with this key are worthless anywhere else.
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of key, or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
