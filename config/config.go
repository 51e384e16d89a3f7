// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTENTGATE_"

// MinSessionSecretLength is the shortest accepted session secret.
const MinSessionSecretLength = 32

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Session      SessionConfig      `yaml:"session"`
	Auth         AuthConfig         `yaml:"auth"`
	Experimental ExperimentalConfig `yaml:"experimental"`
	Lists        ListsConfig        `yaml:"lists"`
	CORS         CORSConfig         `yaml:"cors"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig names the storage target.
type DatabaseConfig struct {
	Provider string `yaml:"provider"` // "sqlite", "postgresql" or "mysql"
	URL      string `yaml:"url"`
}

// SessionConfig configures stateless sessions. Secret has no default.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	MaxAge     time.Duration `yaml:"max_age"`
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"` // force the Secure cookie attribute
}

// AuthConfig configures password hashing.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// ExperimentalConfig toggles the generated API surfaces.
type ExperimentalConfig struct {
	GenerateGraphQLAPI bool `yaml:"generate_graphql_api"`
	GenerateNodeAPI    bool `yaml:"generate_node_api"`
}

// ListsConfig points at YAML list definitions. When Dir is empty the
// built-in blog lists are used.
type ListsConfig struct {
	Dir string `yaml:"dir"`
}

// CORSConfig configures cross-origin requests.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadDotEnv loads environment variables from the given files, or from .env
// when none are given. Missing files are ignored; variables already set in
// the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML bytes. ${VAR} references are expanded
// from the environment before parsing.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := enabledSurfaces()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONTENTGATE_SESSION_SECRET       - Session signing secret, at least 32 bytes (required)
//	CONTENTGATE_SESSION_MAX_AGE      - Session lifetime (default: 168h)
//	CONTENTGATE_SESSION_SECURE       - Force Secure cookies (default: false)
//	CONTENTGATE_DATABASE_PROVIDER    - sqlite, postgresql or mysql (default: sqlite)
//	CONTENTGATE_DATABASE_URL         - Connection string (default: file:./app.db)
//	CONTENTGATE_SERVER_HOST          - Server host (default: 0.0.0.0)
//	CONTENTGATE_SERVER_PORT          - Server port (default: 3000)
//	CONTENTGATE_GRAPHQL_ENABLED      - Serve /api/graphql (default: true)
//	CONTENTGATE_NODE_API_ENABLED     - Serve the REST item API (default: true)
//	CONTENTGATE_LISTS_DIR            - Directory of YAML list definitions
//	CONTENTGATE_CORS_ALLOWED_ORIGINS - Comma-separated origins
//	CONTENTGATE_BCRYPT_COST          - bcrypt work factor (default: 10)
//	CONTENTGATE_LOG_LEVEL            - debug, info, warn, error (default: info)
//	CONTENTGATE_LOG_FORMAT           - json or console (default: json)
//	CONTENTGATE_METRICS_ENABLED      - Serve /metrics (default: true)
//	CONTENTGATE_METRICS_PATH         - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	cfg := enabledSurfaces()
	return finish(&cfg)
}

// enabledSurfaces returns a config with the API surfaces and metrics on.
// File values override it.
func enabledSurfaces() Config {
	return Config{
		Experimental: ExperimentalConfig{GenerateGraphQLAPI: true, GenerateNodeAPI: true},
		Metrics:      MetricsConfig{Enabled: true},
	}
}

// LoadWithFallback loads from path when it exists and otherwise from the
// environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide a config file or set %sSESSION_SECRET", EnvPrefix)
}

// HasEnvConfig reports whether the environment carries enough to run.
func HasEnvConfig() bool {
	return os.Getenv(EnvPrefix+"SESSION_SECRET") != ""
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func env(name string) (string, bool) {
	v := os.Getenv(EnvPrefix + name)
	return v, v != ""
}

// applyEnvOverrides applies CONTENTGATE_* environment variables to the
// config. Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v, ok := env("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := env("SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database configuration
	if v, ok := env("DATABASE_PROVIDER"); ok {
		cfg.Database.Provider = v
	}
	if v, ok := env("DATABASE_URL"); ok {
		cfg.Database.URL = v
	}

	// Session configuration
	if v, ok := env("SESSION_SECRET"); ok {
		cfg.Session.Secret = v
	}
	if v, ok := env("SESSION_MAX_AGE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.MaxAge = d
		}
	}
	if v, ok := env("SESSION_SECURE"); ok {
		cfg.Session.Secure = parseBool(v)
	}

	if v, ok := env("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.BcryptCost = n
		}
	}

	// API surfaces
	if v, ok := env("GRAPHQL_ENABLED"); ok {
		cfg.Experimental.GenerateGraphQLAPI = parseBool(v)
	}
	if v, ok := env("NODE_API_ENABLED"); ok {
		cfg.Experimental.GenerateNodeAPI = parseBool(v)
	}

	if v, ok := env("LISTS_DIR"); ok {
		cfg.Lists.Dir = v
	}

	if v, ok := env("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	// Logging configuration
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := env("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v, ok := env("METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v, ok := env("METRICS_PATH"); ok {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "sqlite"
	}
	if cfg.Database.URL == "" && cfg.Database.Provider == "sqlite" {
		cfg.Database.URL = "file:./app.db"
	}

	if cfg.Session.MaxAge == 0 {
		cfg.Session.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "contentgate-session"
	}

	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validProviders := map[string]bool{"sqlite": true, "postgresql": true, "mysql": true}
	if !validProviders[cfg.Database.Provider] {
		return fmt.Errorf("database.provider must be one of: sqlite, postgresql, mysql, got %q", cfg.Database.Provider)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required for provider %q", cfg.Database.Provider)
	}

	if cfg.Session.Secret == "" {
		return fmt.Errorf("session.secret is required (or set %sSESSION_SECRET)", EnvPrefix)
	}
	if len(cfg.Session.Secret) < MinSessionSecretLength {
		return fmt.Errorf("session.secret must be at least %d bytes", MinSessionSecretLength)
	}
	if cfg.Session.MaxAge < 0 {
		return fmt.Errorf("session.max_age must not be negative")
	}

	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", cfg.Auth.BcryptCost)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}
