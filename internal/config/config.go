// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Login session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendDB     = "db"
)

// ErrMissingVars is returned when required environment variables are unset.
var ErrMissingVars = errors.New("missing required environment variables")

// Config holds all application configuration.
type Config struct {
	// Auth provider
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string

	// Storage
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Server
	Addr           string
	BaseURL        string
	SessionBackend string
	MetricsEnabled bool

	LogLevel string
}

// Load reads an optional .env file from the working directory and then the
// configuration from environment variables. Variables already set in the
// environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return FromEnv()
}

// LoadStorage is Load for commands that only touch the store. It reads the
// storage and logging settings and ignores the auth provider and server.
func LoadStorage() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "./skate.db"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: [DATABASE_URL]", ErrMissingVars)
	}
	if err := validateDriver(cfg.StoreDriver); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration from environment variables.
// It fails fast if required variables are missing or malformed.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		SQLitePath:     getEnv("SQLITE_PATH", "./skate.db"),
		Addr:           getEnv("ADDR", "127.0.0.1:8080"),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendDB)),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://"+cfg.Addr), "/")

	var missingVars []string

	cfg.SupabaseURL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	if cfg.SupabaseURL == "" {
		missingVars = append(missingVars, "SUPABASE_URL")
	}

	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
	if cfg.SupabaseAnonKey == "" {
		missingVars = append(missingVars, "SUPABASE_ANON_KEY")
	}

	cfg.SupabaseServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if cfg.SupabaseServiceRoleKey == "" {
		missingVars = append(missingVars, "SUPABASE_SERVICE_ROLE_KEY")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		missingVars = append(missingVars, "DATABASE_URL")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingVars, missingVars)
	}

	if err := validateHTTPURL("SUPABASE_URL", cfg.SupabaseURL); err != nil {
		return nil, err
	}
	if err := validateHTTPURL("BASE_URL", cfg.BaseURL); err != nil {
		return nil, err
	}

	if err := validateDriver(cfg.StoreDriver); err != nil {
		return nil, err
	}

	switch cfg.SessionBackend {
	case SessionBackendMemory, SessionBackendDB:
	default:
		return nil, fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendMemory, SessionBackendDB, cfg.SessionBackend)
	}

	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
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

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func validateDriver(driver string) error {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, driver)
	}
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool gets a boolean environment variable or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
