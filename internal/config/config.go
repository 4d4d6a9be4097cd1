// Package config loads the stint CLI configuration. Settings come from a
// YAML file (~/.stint.yml by default), with STINT_* environment variables
// taking precedence so scripts and CI can override without editing files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	// CurrentVersion is the config file format version this build reads.
	CurrentVersion = "1.0"

	// DefaultRedisURL is used when no redis_url is configured.
	DefaultRedisURL = "redis://localhost:6379"

	// DefaultEnvironment is the key namespace used when none is configured.
	DefaultEnvironment = "default"
)

// Environment variable overrides. Each one, when set and non-empty,
// replaces the corresponding file setting.
const (
	EnvRedisURL    = "STINT_REDIS_URL"
	EnvEnvironment = "STINT_ENVIRONMENT"
	EnvSessionFile = "STINT_SESSION_FILE"
)

// Config is the top-level .stint.yml configuration.
type Config struct {
	Version     string `yaml:"version"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	Environment string `yaml:"environment,omitempty"`
	SessionFile string `yaml:"session_file,omitempty"`
}

// DefaultPath returns the standard config file location, ~/.stint.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".stint.yml"), nil
}

// Validate checks the configuration and fills in defaults for optional
// fields.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported version: %q (expected: %s)", c.Version, CurrentVersion)
	}

	if c.RedisURL == "" {
		c.RedisURL = DefaultRedisURL
	}
	if _, err := redis.ParseURL(c.RedisURL); err != nil {
		return fmt.Errorf("invalid redis_url %q: %w", c.RedisURL, err)
	}

	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	// The environment is spliced into Redis key paths, so separator
	// characters would blur the namespace boundaries.
	if strings.ContainsAny(c.Environment, ": \t\n") {
		return fmt.Errorf("invalid environment %q: must not contain colons or whitespace", c.Environment)
	}

	if c.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		c.SessionFile = filepath.Join(home, ".stint", "session")
	}

	return nil
}

// RedisOptions returns the connection options for the configured Redis.
func (c *Config) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url %q: %w", c.RedisURL, err)
	}
	return opts, nil
}

// Load reads and validates a config file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like Load, but a missing file is not an error:
// the CLI then runs on defaults plus environment overrides, so a fresh
// install works against a local Redis before stint init was ever run.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := &Config{Version: CurrentVersion}
		config.applyEnvOverrides()
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	return Load(path)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		c.Environment = v
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.SessionFile = v
	}
}

// starterConfig is what stint init writes: every setting present,
// optional ones commented out.
const starterConfig = `# stint configuration
version: "1.0"

# Redis connection string.
redis_url: redis://localhost:6379

# Key namespace. Lets several installations share one Redis.
environment: default

# Where the session token is stored. Defaults to ~/.stint/session.
# session_file: /home/you/.stint/session
`

// WriteStarter writes a starter config file for stint init. An existing
// file is left alone unless force is set.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
