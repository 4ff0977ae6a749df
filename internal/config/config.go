// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// StoreConfig selects and locates the storage backend. The server and the
// adduser tool share it so both open the same store.
type StoreConfig struct {
	StoreDriver  string        `env:"STORE_DRIVER"     envDefault:"sqlite"`
	DBPath       string        `env:"DB_PATH"          envDefault:"expenses.db"`
	MongoURI     string        `env:"MONGODB_URI"      envDefault:"mongodb://localhost/expense-tracker"`
	MongoDB      string        `env:"MONGODB_DATABASE" envDefault:"expense-tracker"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT"    envDefault:"5s"`
}

// Config holds every setting the server reads at startup.
type Config struct {
	StoreConfig

	Port       string        `env:"PORT"            envDefault:"3000"`
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"       envDefault:"0s"`
	RedisURL   string        `env:"REDIS_URL"`
	AuthRate   float64       `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthBurst  int           `env:"AUTH_RATE_BURST" envDefault:"10"`
	CORSOrigin string        `env:"CORS_ORIGIN"     envDefault:"*"`
	LogLevel   string        `env:"LOG_LEVEL"       envDefault:"info"`

	// Optional account created at startup when it does not exist yet.
	AdminUser     string `env:"ADMIN_USER"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads .env when present, then parses and validates the environment.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStore reads only the store settings, for tools that need no secrets.
func LoadStore() (StoreConfig, error) {
	if err := loadDotEnv(); err != nil {
		return StoreConfig{}, err
	}

	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return StoreConfig{}, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate checks the driver name and timeout.
func (c StoreConfig) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

// Validate checks values env.Parse cannot.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if err := c.StoreConfig.Validate(); err != nil {
		return err
	}
	if c.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.AuthRate <= 0 || c.AuthBurst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if c.AdminUser != "" && (c.AdminEmail == "" || c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required with ADMIN_USER")
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
