// Package config loads and manages wally server configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, LLM_BASE_URL, LLM_MODEL, ANTHROPIC_API_KEY, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/wally/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// PipelineConfig holds the chat pipeline's tuning knobs.
type PipelineConfig struct {
	// TokensPerChar is the character-to-token estimate ratio. 0 = default (0.25).
	TokensPerChar float64 `yaml:"tokens_per_char"`

	// Scoring weights for history retention. All 0 = defaults (0.6/0.2/0.2).
	RecencyWeight float64 `yaml:"recency_weight"`
	SizeWeight    float64 `yaml:"size_weight"`
	RoleWeight    float64 `yaml:"role_weight"`

	// ResponseReserve is the token headroom withheld for the model's reply.
	ResponseReserve int `yaml:"response_reserve"`

	// IncludeTimestamps annotates prompt entries with send times.
	IncludeTimestamps bool `yaml:"include_timestamps"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level: "debug" | "info" | "warn" | "error"
	Level string `yaml:"level"`

	// Format: "json" (default) | "console"
	Format string `yaml:"format"`
}

// Config is the complete wally server configuration.
type Config struct {
	// Provider is the active backend name ("openai", "anthropic", "gemini", "deepseek").
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider credentials and endpoints.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// ContextWindow overrides the provider's default context window size.
	// 0 = use provider default.
	ContextWindow int `yaml:"context_window"`

	// Persona overrides the built-in system instruction. Empty = default.
	Persona string `yaml:"persona"`

	// MaxOutputTokens caps the model's reply length (default 2048).
	MaxOutputTokens int `yaml:"max_output_tokens"`

	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`

	// DBPath is the transcript database location.
	// Empty = ~/.local/share/wally/transcripts.db.
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:        "openai",
		Providers:       make(map[string]*ProviderConfig),
		MaxOutputTokens: 2048,
		Pipeline: PipelineConfig{
			ResponseReserve: 1024,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the config file and merges environment overrides.
// A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "wally", "config.yaml")
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}

	return cfg, nil
}

// GetProviderConfig returns the named provider's config, or an empty one.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) {
	// Generic overrides apply to whichever provider is active.
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if cfg.Providers["anthropic"] == nil {
			cfg.Providers["anthropic"] = &ProviderConfig{}
		}
		cfg.Providers["anthropic"].APIKey = v
	}

	if v := os.Getenv("WALLY_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("WALLY_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("WALLY_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
}
