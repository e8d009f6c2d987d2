// Package config loads book catalog configuration from environment variables,
// optionally seeded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	HashingPlain  = "plain"
	HashingBcrypt = "bcrypt"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Auth    AuthConfig
	Catalog CatalogConfig
	Audit   AuditConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET,default=access"`
	TokenTTL   time.Duration `env:"JWT_TTL,default=1h"`
	Issuer     string        `env:"JWT_ISSUER,default=book-catalog"`
	Hashing    string        `env:"PASSWORD_HASHING,default=plain"`
	BcryptCost int           `env:"BCRYPT_COST,default=10"`
}

// CatalogConfig points at an optional YAML catalog. An empty path selects the
// built-in catalog.
type CatalogConfig struct {
	Path string `env:"CATALOG_PATH"`
}

type AuditConfig struct {
	LogPath    string `env:"AUDIT_LOG_PATH"`
	MaxEntries int    `env:"AUDIT_MAX_ENTRIES,default=200"`
}

// CORSConfig holds the comma separated origin allowlist. "*" allows any
// origin.
type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
}

// Origins splits the allowlist. An unset list allows any origin.
func (c CORSConfig) Origins() []string {
	origins := parseCSV(c.AllowedOrigins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Load reads envFile when given (it must exist), otherwise a .env in the
// working directory if present, then decodes the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.Auth.Hashing = strings.ToLower(strings.TrimSpace(cfg.Auth.Hashing))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Auth: AuthConfig{
			JWTSecret:  "access",
			TokenTTL:   time.Hour,
			Issuer:     "book-catalog",
			Hashing:    HashingPlain,
			BcryptCost: 10,
		},
		Audit: AuditConfig{MaxEntries: 200},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Auth.Hashing {
	case HashingPlain, HashingBcrypt:
	default:
		return fmt.Errorf("unknown PASSWORD_HASHING %q (want %q or %q)", c.Auth.Hashing, HashingPlain, HashingBcrypt)
	}
	if c.Audit.MaxEntries < 0 {
		return fmt.Errorf("AUDIT_MAX_ENTRIES must not be negative")
	}
	return nil
}

func parseCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
