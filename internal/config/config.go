// Package config provides configuration types, defaults, and persistence
// for dedi.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dedi/internal/log"
)

// Config holds all configuration options for dedi.
type Config struct {
	// Endpoint is the registry API host. Empty means the public sandbox.
	Endpoint string `mapstructure:"endpoint"`

	// RequestTimeout bounds every API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// CacheTTL controls how long namespace list responses are reused
	// before a fresh fetch is forced.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// WatchConfig reloads theme and UI settings when the config file
	// changes on disk.
	WatchConfig bool `mapstructure:"watch_config"`

	// JournalPath overrides the local activity journal location.
	// Empty means ~/.config/dedi/journal.db.
	JournalPath string `mapstructure:"journal_path"`

	UI      UIConfig        `mapstructure:"ui"`
	Theme   ThemeConfig     `mapstructure:"theme"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowCounts    bool   `mapstructure:"show_counts"`
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// ThemeConfig holds color overrides. Empty strings keep the defaults.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight"`
	Subtle    string `mapstructure:"subtle"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "file", "stdout", "otlp"
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Endpoint:       "",
		RequestTimeout: 15 * time.Second,
		CacheTTL:       5 * time.Minute,
		WatchConfig:    true,
		UI: UIConfig{
			ShowCounts:    true,
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "dedi",
		},
	}
}

// Dir returns the user config directory (~/.config/dedi).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dedi"
	}
	return filepath.Join(home, ".config", "dedi")
}

// DefaultJournalPath is where the local activity journal lives unless
// overridden.
func DefaultJournalPath() string {
	return filepath.Join(Dir(), "journal.db")
}

// ResolvedJournalPath returns the configured journal path or the default.
func (c Config) ResolvedJournalPath() string {
	if c.JournalPath != "" {
		return c.JournalPath
	}
	return DefaultJournalPath()
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# dedi configuration
# Location: ~/.config/dedi/config.yaml

# Registry API endpoint (default: public sandbox)
# endpoint: https://sandbox.dedi.global

# Upper bound for any single API request
request_timeout: 15s

# How long namespace list responses are reused before a forced re-fetch
cache_ttl: 5m

# Reload theme/UI settings when this file changes
watch_config: true

# Local activity journal location
# journal_path: ~/.config/dedi/journal.db

ui:
  # Show entity counts next to list titles
  show_counts: true
  # Show the bottom status bar
  show_status_bar: true
  # Markdown rendering style for descriptions: dark or light
  markdown_style: dark

# Theme color overrides (hex values)
# theme:
#   highlight: "#54A0FF"
#   subtle: "#696969"
#   error: "#FF8787"
#   success: "#73F59F"

# Feature flags
# flags:
#   records-preview: true   # Show the (mock-backed) records page

# Tracing of API requests
# tracing:
#   enabled: false
#   exporter: file          # none, file, stdout, otlp
#   file_path: ~/.config/dedi/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
