// Package config loads the barista.yml configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "barista.yml"

// GeminiConfig selects the generation model and where its key comes from.
// The key itself never lives in the file.
type GeminiConfig struct {
	Model     string `yaml:"model,omitempty"`       // default: gemini-2.5-flash
	APIKeyEnv string `yaml:"api_key_env,omitempty"` // default: GEMINI_API_KEY
}

// Config represents the top-level barista.yml configuration.
type Config struct {
	RedisURL   string        `yaml:"redis_url,omitempty"`
	Session    string        `yaml:"session,omitempty"`
	DatasetDir string        `yaml:"dataset_dir,omitempty"`
	Gemini     *GeminiConfig `yaml:"gemini,omitempty"`
}

// Validate fills defaults and rejects unusable values.
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379"
	}
	if c.Session == "" {
		c.Session = "default"
	}
	if c.DatasetDir == "" {
		c.DatasetDir = "datasets"
	}
	if c.Gemini == nil {
		c.Gemini = &GeminiConfig{}
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	return nil
}

// APIKey reads the Gemini key from the configured environment variable.
// Empty means no key is available and the offline collaborator is used.
func (c *Config) APIKey() string {
	return os.Getenv(c.Gemini.APIKeyEnv)
}

// Load reads and validates a configuration file. A missing file yields the
// defaults; environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BARISTA_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("BARISTA_SESSION"); v != "" {
		cfg.Session = v
	}
}
