// Package config provides configuration loading and management for socrelay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete socrelay configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Model      ModelConfig      `yaml:"model"`
	Reputation ReputationConfig `yaml:"reputation"`
	CVE        CVEConfig        `yaml:"cve"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address (default: ":8080")
	Addr string `yaml:"addr"`
	// ShutdownTimeout bounds graceful shutdown on SIGTERM
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ModelConfig configures the LLM completion settings.
type ModelConfig struct {
	// Endpoint is an OpenAI-compatible API endpoint override.
	// Empty means each provider's default URL.
	Endpoint string `yaml:"endpoint"`
	// Analysis is the model used for structured/critical tasks (triage, phishing)
	Analysis string `yaml:"analysis"`
	// Drafting is the faster model used for bulk conversational tasks (tickets, KB)
	Drafting string `yaml:"drafting"`
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// ReputationConfig configures the indicator reputation provider.
type ReputationConfig struct {
	// BaseURL is the provider API root (default: VirusTotal v3)
	BaseURL string `yaml:"base_url"`
	// APIKey authenticates to the provider (env: VT_API_KEY)
	APIKey string `yaml:"api_key"`
	// Timeout bounds each lookup call
	Timeout time.Duration `yaml:"timeout"`
	// Disabled short-circuits all lookups to Unknown without network calls.
	// Used for offline/dev operation and to control external-API cost.
	Disabled bool `yaml:"disabled"`
}

// CVEConfig configures the CVE lookup service.
type CVEConfig struct {
	// BaseURL is the CIRCL CVE API root
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each lookup call
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection backing the document store.
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			Endpoint:    "",
			Analysis:    "gpt-4o",
			Drafting:    "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     2 * time.Minute,
		},
		Reputation: ReputationConfig{
			BaseURL: "https://www.virustotal.com/api/v3",
			Timeout: 10 * time.Second,
		},
		CVE: CVEConfig{
			BaseURL: "https://cve.circl.lu/api",
			Timeout: 15 * time.Second,
		},
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Model.Analysis == "" {
		return fmt.Errorf("model.analysis is required")
	}
	if c.Model.Drafting == "" {
		return fmt.Errorf("model.drafting is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if !c.Reputation.Disabled && c.Reputation.BaseURL == "" {
		return fmt.Errorf("reputation.base_url is required unless reputation is disabled")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Model
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Analysis != "" {
		c.Model.Analysis = other.Model.Analysis
	}
	if other.Model.Drafting != "" {
		c.Model.Drafting = other.Model.Drafting
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	// Reputation
	if other.Reputation.BaseURL != "" {
		c.Reputation.BaseURL = other.Reputation.BaseURL
	}
	if other.Reputation.APIKey != "" {
		c.Reputation.APIKey = other.Reputation.APIKey
	}
	if other.Reputation.Timeout != 0 {
		c.Reputation.Timeout = other.Reputation.Timeout
	}
	if other.Reputation.Disabled {
		c.Reputation.Disabled = true
	}

	// CVE
	if other.CVE.BaseURL != "" {
		c.CVE.BaseURL = other.CVE.BaseURL
	}
	if other.CVE.Timeout != 0 {
		c.CVE.Timeout = other.CVE.Timeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
