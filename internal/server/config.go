package server

import (
	"fmt"
	"os"
	"time"

	"github.com/stintapp/stint/internal/auth"
)

// Config holds the stintd runtime configuration loaded from environment
// variables. Validation happens at startup so a misconfigured daemon
// fails before any resources are allocated.
type Config struct {
	// RedisURL is the Redis connection string (from STINTD_REDIS_URL)
	RedisURL string

	// ListenAddr is the HTTP listen address (from STINTD_LISTEN_ADDR)
	ListenAddr string

	// Environment is the Redis key namespace (from STINTD_ENV)
	Environment string

	// SessionTTL bounds how long a session survives without activity
	// (from STINTD_SESSION_TTL, a Go duration)
	SessionTTL time.Duration
}

const (
	// DefaultRedisURL points at a local Redis with the default database.
	DefaultRedisURL = "redis://localhost:6379/0"

	// DefaultListenAddr is the stintd HTTP port.
	DefaultListenAddr = ":8321"

	// DefaultSessionTTL mirrors the auth package default.
	DefaultSessionTTL = auth.DefaultSessionTTL
)

// LoadConfig reads configuration from environment variables, applying
// defaults for anything unset. Returns an error if a set variable is
// invalid.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:    os.Getenv("STINTD_REDIS_URL"),
		ListenAddr:  os.Getenv("STINTD_LISTEN_ADDR"),
		Environment: os.Getenv("STINTD_ENV"),
		SessionTTL:  DefaultSessionTTL,
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = DefaultRedisURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Environment == "" {
		cfg.Environment = "default"
	}

	if ttl := os.Getenv("STINTD_SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to parse STINTD_SESSION_TTL as a duration: %w", err)
		}
		cfg.SessionTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are present and
// valid. Returns the first validation error encountered.
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("Redis URL cannot be empty")
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("STINTD_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	return nil
}
