// Package config holds propscout configuration: where the catalog lives,
// per-call timeouts, and local state paths. Settings load from a YAML file
// with environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all propscout configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Remote catalog
	Catalog CatalogConfig `yaml:"catalog"`

	// Local state (submitter identity, config file)
	DataDir string `yaml:"data_dir"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// UI
	UI UIConfig `yaml:"ui"`
}

// CatalogConfig configures the remote catalog client.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout bounds every catalog call (search, create, attach).
	Timeout string `yaml:"timeout"`
	// ChatTimeout bounds the assistant round trip, which is usually slower
	// than a plain search.
	ChatTimeout string `yaml:"chat_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty disables the file sink
}

// UIConfig configures the interactive terminal UI.
type UIConfig struct {
	DarkMode bool `yaml:"dark_mode"`
	// PageSize is the number of result rows per page in the list view.
	PageSize int `yaml:"page_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "propscout",
		Version: "1.0.0",

		Catalog: CatalogConfig{
			BaseURL:     "http://localhost:5000",
			Timeout:     "15s",
			ChatTimeout: "45s",
		},

		DataDir: defaultDataDir(),

		Logging: LoggingConfig{
			Level: "info",
		},

		UI: UIConfig{
			PageSize: 10,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".propscout"
	}
	return filepath.Join(home, ".propscout")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
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

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("PROPSCOUT_CATALOG_URL"); url != "" {
		c.Catalog.BaseURL = url
	}
	if t := os.Getenv("PROPSCOUT_TIMEOUT"); t != "" {
		c.Catalog.Timeout = t
	}
	if dir := os.Getenv("PROPSCOUT_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv("PROPSCOUT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetCatalogTimeout returns the catalog call timeout as a duration.
func (c *Config) GetCatalogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Catalog.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetChatTimeout returns the assistant round-trip timeout as a duration.
func (c *Config) GetChatTimeout() time.Duration {
	d, err := time.ParseDuration(c.Catalog.ChatTimeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// IdentityPath returns the file holding the persisted submitter identity.
func (c *Config) IdentityPath() string {
	return filepath.Join(c.DataDir, "identity.json")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL not configured (set PROPSCOUT_CATALOG_URL or catalog.base_url)")
	}
	if _, err := time.ParseDuration(c.Catalog.Timeout); err != nil {
		return fmt.Errorf("invalid catalog timeout %q: %w", c.Catalog.Timeout, err)
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("ui page_size must be positive, got %d", c.UI.PageSize)
	}
	return nil
}
