// Package config provides configuration types and defaults for glint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glinthq/glint/internal/log"
	"github.com/glinthq/glint/internal/tracing"
)

// Config holds all configuration options for glint.
type Config struct {
	// Language is the default lexer name when no file extension gives one
	// away. Empty means plain text.
	Language string `mapstructure:"language"`

	// Theme is the color theme used for highlighting.
	Theme string `mapstructure:"theme"`

	// Streaming enables incremental highlighting while input arrives.
	// When false, input is highlighted once after it is fully read.
	Streaming bool `mapstructure:"streaming"`

	// Follow re-reads the input file when it changes on disk.
	Follow bool `mapstructure:"follow"`

	// Replacements maps theme colors to overrides, e.g. "#272822": "#1e1e1e".
	// Keys are matched case-insensitively.
	Replacements map[string]string `mapstructure:"replacements"`

	Stream  StreamConfig   `mapstructure:"stream"`
	UI      UIConfig       `mapstructure:"ui"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// StreamConfig tunes how input is chunked into the highlighter.
type StreamConfig struct {
	// ChunkSize is the number of bytes fed per update when streaming a
	// static file. Smaller values animate more, larger values finish faster.
	ChunkSize int `mapstructure:"chunk_size"`

	// ChunkDelay is the pause between chunks when streaming a static file.
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`

	// FollowDebounce is how long to wait after a file change before
	// re-reading it, so bursts of writes collapse into one update.
	FollowDebounce time.Duration `mapstructure:"follow_debounce"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	ShowLineNums  bool `mapstructure:"show_line_numbers"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Language:  "",
		Theme:     "monokai",
		Streaming: true,
		Follow:    false,
		Stream: StreamConfig{
			ChunkSize:      64,
			ChunkDelay:     25 * time.Millisecond,
			FollowDebounce: 200 * time.Millisecond,
		},
		UI: UIConfig{
			ShowStatusBar: true,
			ShowLineNums:  false,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values fall back to
// defaults and are always valid.
func (c Config) Validate() error {
	if c.Stream.ChunkSize < 0 {
		return fmt.Errorf("stream.chunk_size must not be negative, got %d", c.Stream.ChunkSize)
	}
	if c.Stream.ChunkDelay < 0 {
		return fmt.Errorf("stream.chunk_delay must not be negative, got %v", c.Stream.ChunkDelay)
	}
	if c.Stream.FollowDebounce < 0 {
		return fmt.Errorf("stream.follow_debounce must not be negative, got %v", c.Stream.FollowDebounce)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/glint/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "glint", "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Glint Configuration

# Default language when the file extension doesn't identify one.
# Run 'glint languages' to list supported lexers. Empty = plain text.
# language: go

# Color theme for highlighting. Run 'glint themes' to list them.
theme: monokai

# Highlight incrementally while input arrives (stdin, --follow).
# When false, input is highlighted once after it is fully read.
streaming: true

# Re-read the input file when it changes on disk (same as --follow).
follow: false

# Override individual theme colors. Keys match case-insensitively.
# replacements:
#   "#272822": "#1e1e1e"
#   "#f8f8f2": "#ffffff"

# Streaming behavior
stream:
  chunk_size: 64          # Bytes fed per update when replaying a file
  chunk_delay: 25ms       # Pause between chunks
  follow_debounce: 200ms  # Quiet period before re-reading a changed file

# UI settings
ui:
  show_status_bar: true    # Show status bar at bottom
  show_line_numbers: false # Show line numbers in the gutter

# Tracing configuration
# Enables end-to-end visibility into the highlight pipeline
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/glint/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
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
