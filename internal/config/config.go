package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bridge.
type Config struct {
	Listmonk ListmonkConfig `yaml:"listmonk"`
	Audience AudienceConfig `yaml:"audience"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ListmonkConfig holds listmonk API credentials and connection settings.
// BaseURL is the admin API root (the public subscription endpoint is
// served relative to the same root).
type ListmonkConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c ListmonkConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AudienceConfig holds subscriber reconciliation settings.
type AudienceConfig struct {
	// DuplicatePolicy controls how a lookup that finds more than one
	// subscriber for an email is treated: "fail" or "warn".
	DuplicatePolicy string `yaml:"duplicate_policy"`
	// DefaultName is used when creating a subscriber with no display name.
	DefaultName string `yaml:"default_name"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII bool   `yaml:"redact_pii"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Listmonk.BaseURL == "" {
		cfg.Listmonk.BaseURL = "http://localhost:9000/api"
	}
	if cfg.Listmonk.TimeoutSeconds == 0 {
		cfg.Listmonk.TimeoutSeconds = 30
	}
	if cfg.Audience.DuplicatePolicy == "" {
		cfg.Audience.DuplicatePolicy = "fail"
	}
	if cfg.Audience.DefaultName == "" {
		cfg.Audience.DefaultName = "Anonymous"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so credentials can live in
// .env locally and in real env vars in deployment. A missing config file
// is not an error here: defaults plus environment are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = parse(nil)
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LISTMONK_BASE_URL"); v != "" {
		cfg.Listmonk.BaseURL = v
	}
	if v := os.Getenv("LISTMONK_USERNAME"); v != "" {
		cfg.Listmonk.Username = v
	}
	if v := os.Getenv("LISTMONK_PASSWORD"); v != "" {
		cfg.Listmonk.Password = v
	}
	if v := os.Getenv("AUDIENCE_DUPLICATE_POLICY"); v != "" {
		cfg.Audience.DuplicatePolicy = v
	}

	return cfg, nil
}
