// Package config provides configuration loading for the ecosim CLI.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// APIKeyEnv names the environment variable holding the oracle API key.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config holds all ecosim configuration.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
	Events    EventsConfig    `yaml:"events"`
}

// WorldConfig holds generation parameters.
type WorldConfig struct {
	GridSize int `yaml:"grid_size"`
}

// OracleConfig holds the Messages API and retry settings.
type OracleConfig struct {
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	MaxTokens     int           `yaml:"max_tokens"`      // forecast responses
	ChatMaxTokens int           `yaml:"chat_max_tokens"` // conversational replies
	Timeout       time.Duration `yaml:"timeout"`
	MaxPerMinute  int           `yaml:"max_per_minute"`
	Attempts      int           `yaml:"attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`

	// APIKey comes from the environment only.
	APIKey string `yaml:"-"`
}

// StorageConfig holds the SQLite location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig holds CSV output settings. An empty Dir disables output.
type TelemetryConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// EventsConfig bounds the per-state event log.
type EventsConfig struct {
	LogLimit int `yaml:"log_limit"`
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only keys present in the file overwrite the defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Oracle.APIKey = os.Getenv(APIKeyEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.World.GridSize <= 0:
		return fmt.Errorf("%w: world.grid_size must be positive, got %d", ErrInvalid, c.World.GridSize)
	case c.Oracle.Attempts <= 0:
		return fmt.Errorf("%w: oracle.attempts must be positive, got %d", ErrInvalid, c.Oracle.Attempts)
	case c.Oracle.RetryDelay < 0:
		return fmt.Errorf("%w: oracle.retry_delay must not be negative", ErrInvalid)
	case c.Oracle.MaxTokens <= 0 || c.Oracle.ChatMaxTokens <= 0:
		return fmt.Errorf("%w: oracle token budgets must be positive", ErrInvalid)
	case c.Events.LogLimit <= 0:
		return fmt.Errorf("%w: events.log_limit must be positive, got %d", ErrInvalid, c.Events.LogLimit)
	case c.Storage.Path == "":
		return fmt.Errorf("%w: storage.path is required", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
