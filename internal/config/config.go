// Package config loads GridScout configuration from a YAML file with
// environment-variable overrides. Missing files fall back to defaults so the
// binary can start with nothing but API keys in the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all GridScout configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Data       DataConfig       `yaml:"data"`
	TBA        TBAConfig        `yaml:"tba"`
	Statbotics StatboticsConfig `yaml:"statbotics"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	LLM        LLMConfig        `yaml:"llm"`
	Picklist   PicklistConfig   `yaml:"picklist"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig configures on-disk data locations.
type DataConfig struct {
	// Dir is the root data directory; datasets live in Dir/datasets,
	// extraction caches in Dir/cache.
	Dir string `yaml:"dir"`
}

// TBAConfig configures The Blue Alliance client.
type TBAConfig struct {
	BaseURL string `yaml:"base_url"`
	AuthKey string `yaml:"auth_key"`
	Timeout string `yaml:"timeout"`
}

// StatboticsConfig configures the Statbotics client.
type StatboticsConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// SheetsConfig configures Google Sheets access.
type SheetsConfig struct {
	// CredentialsFile points at a service-account JSON key. Empty disables
	// the Google Sheets source; local .xlsx import still works.
	CredentialsFile string `yaml:"credentials_file"`
}

// LLMConfig configures the chat-completions client used for picklist
// generation and manual extraction.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
	Temperature float64 `yaml:"temperature"`
}

// PicklistConfig tunes picklist generation.
type PicklistConfig struct {
	// BatchSize is the number of candidate teams sent per LLM call when
	// batching kicks in.
	BatchSize int `yaml:"batch_size"`
	// BatchingThreshold is the team count above which generation switches
	// from a single call to batched calls.
	BatchingThreshold int `yaml:"batching_threshold"`
	// ReferenceTeams is how many shared teams are carried between batches
	// for score normalization.
	ReferenceTeams int `yaml:"reference_teams"`
	// BatchDelay paces sequential LLM calls to stay under rate limits.
	BatchDelay string `yaml:"batch_delay"`
	// CacheTTL bounds how long generated picklists are served from cache.
	CacheTTL string `yaml:"cache_ttl"`
}

// RedisConfig configures the optional Redis picklist cache backend.
// An empty Addr keeps the cache purely in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Data: DataConfig{
			Dir: "data",
		},
		TBA: TBAConfig{
			BaseURL: "https://www.thebluealliance.com/api/v3",
			Timeout: "15s",
		},
		Statbotics: StatboticsConfig{
			BaseURL: "https://api.statbotics.io/v3",
			Timeout: "15s",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Timeout:     "120s",
			MaxRetries:  3,
			Temperature: 0.2,
		},
		Picklist: PicklistConfig{
			BatchSize:         20,
			BatchingThreshold: 40,
			ReferenceTeams:    3,
			BatchDelay:        "500ms",
			CacheTTL:          "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for missing
// fields and environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration back to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DatasetDir returns the directory unified dataset files are written to.
func (c *Config) DatasetDir() string {
	return filepath.Join(c.Data.Dir, "datasets")
}

// CacheDir returns the directory for on-disk extraction caches.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Data.Dir, "cache")
}

// ParseDuration parses a duration field, returning fallback for empty or
// malformed values. Config durations are strings so YAML stays readable.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
