package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Model.Analysis != "gpt-4o" {
		t.Errorf("expected default analysis model gpt-4o, got %s", cfg.Model.Analysis)
	}
	if cfg.Model.Drafting != "gpt-4o-mini" {
		t.Errorf("expected default drafting model gpt-4o-mini, got %s", cfg.Model.Drafting)
	}
	if cfg.Model.Temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %f", cfg.Model.Temperature)
	}
	if cfg.Reputation.Disabled {
		t.Error("expected reputation enabled by default")
	}
	if cfg.Reputation.BaseURL == "" {
		t.Error("expected a default reputation base URL")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing server addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
		},
		{
			name:    "missing analysis model",
			modify:  func(c *Config) { c.Model.Analysis = "" },
			wantErr: true,
		},
		{
			name:    "missing drafting model",
			modify:  func(c *Config) { c.Model.Drafting = "" },
			wantErr: true,
		},
		{
			name:    "temperature too low",
			modify:  func(c *Config) { c.Model.Temperature = -0.1 },
			wantErr: true,
		},
		{
			name:    "temperature too high",
			modify:  func(c *Config) { c.Model.Temperature = 1.1 },
			wantErr: true,
		},
		{
			name: "missing reputation URL allowed when disabled",
			modify: func(c *Config) {
				c.Reputation.BaseURL = ""
				c.Reputation.Disabled = true
			},
			wantErr: false,
		},
		{
			name:    "missing reputation URL rejected when enabled",
			modify:  func(c *Config) { c.Reputation.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing NATS URL",
			modify:  func(c *Config) { c.NATS.URL = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "socrelay.yaml")

	content := `
server:
  addr: ":9090"
model:
  analysis: "gpt-4-turbo"
  timeout: 30s
reputation:
  disabled: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Model.Analysis != "gpt-4-turbo" {
		t.Errorf("expected analysis gpt-4-turbo, got %s", cfg.Model.Analysis)
	}
	if cfg.Model.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Model.Timeout)
	}
	if !cfg.Reputation.Disabled {
		t.Error("expected reputation disabled")
	}
	// Untouched fields keep defaults
	if cfg.Model.Drafting != "gpt-4o-mini" {
		t.Errorf("expected default drafting model, got %s", cfg.Model.Drafting)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{}
	override.Model.Endpoint = "http://localhost:11434/v1"
	override.Reputation.Disabled = true

	base.Merge(override)

	if base.Model.Endpoint != "http://localhost:11434/v1" {
		t.Errorf("expected merged endpoint, got %s", base.Model.Endpoint)
	}
	if !base.Reputation.Disabled {
		t.Error("expected merged disabled flag")
	}
	if base.Server.Addr != ":8080" {
		t.Errorf("expected untouched addr, got %s", base.Server.Addr)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SOCRELAY_ADDR", ":7070")
	t.Setenv("VT_API_KEY", "test-key")
	t.Setenv("SOCRELAY_REPUTATION_DISABLED", "true")

	cfg := DefaultConfig()
	applyEnv(cfg)

	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected addr from env, got %s", cfg.Server.Addr)
	}
	if cfg.Reputation.APIKey != "test-key" {
		t.Errorf("expected API key from env, got %s", cfg.Reputation.APIKey)
	}
	if !cfg.Reputation.Disabled {
		t.Error("expected disabled from env")
	}
}
