// Package config loads storefront configuration from the environment, with a
// .env file honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Uploads UploadsConfig
	Admin   AdminConfig
	Auth    AuthConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port int

	// Login rate limit: requests per IP per window.
	LoginRateLimit  int
	LoginRateWindow int
}

// StoreConfig selects the document store: the flat JSON file by default, or
// Postgres when DATABASE_URL is set.
type StoreConfig struct {
	File        string
	DatabaseURL string
}

type UploadsConfig struct {
	Dir string
}

type AdminConfig struct {
	Email string
	Name  string
	// PasswordHash is an optional bcrypt hash; when set, admin login also
	// requires the matching password.
	PasswordHash string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

// Load reads configuration from the environment. A missing .env file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 5000),
			LoginRateLimit:  getEnvAsInt("RATE_LIMIT", 5),
			LoginRateWindow: getEnvAsInt("RATE_WINDOW", 60),
		},
		Store: StoreConfig{
			File:        getEnv("DB_FILE", "db.json"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Uploads: UploadsConfig{
			Dir: getEnv("UPLOADS_DIR", "uploads"),
		},
		Admin: AdminConfig{
			Email:        os.Getenv("ADMIN_EMAIL"),
			Name:         os.Getenv("ADMIN_NAME"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 12*time.Hour),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", false),
			Token:   os.Getenv("METRICS_TOKEN"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.LoginRateLimit < 1 || c.Server.LoginRateWindow < 1 {
		return fmt.Errorf("login rate limit and window must be positive")
	}

	if c.Store.File == "" && c.Store.DatabaseURL == "" {
		return fmt.Errorf("document store file is required")
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads directory is required")
	}

	if c.Admin.Email == "" {
		return fmt.Errorf("admin email is required")
	}
	if c.Admin.Name == "" {
		return fmt.Errorf("admin name is required")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret is required and must be at least 16 chars")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return fmt.Errorf("metrics token is required when metrics are enabled")
	}

	return nil
}

// Address returns the server listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
