// Package config handles configuration file loading and parsing for the
// toast CLI and the toastd daemon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastkit/internal/model"
)

// AppName is the directory name used under the XDG config home.
const AppName = "toastkit"

// Default CLI values.
const (
	DefaultOutputFormat = "text"
	DefaultCallTimeout  = 5 * time.Second
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "300ms", "2s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := model.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int64 {
	return time.Duration(d).Milliseconds()
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the toast CLI configuration.
// Loaded from ~/.config/toastkit/toast.toml
type Config struct {
	Show   ShowConfig   `toml:"show"`
	Output OutputConfig `toml:"output"`
	DBus   DBusConfig   `toml:"dbus"`
}

// ShowConfig holds defaults for "toast show".
type ShowConfig struct {
	Style    string   `toml:"style"`    // plain, success, error, warning
	Position string   `toml:"position"` // empty = daemon default
	Duration Duration `toml:"duration"` // 0 = daemon default
}

// OutputConfig holds output formatting options.
type OutputConfig struct {
	Format string `toml:"format"` // text, json, yaml
}

// DBusConfig holds session bus client options.
type DBusConfig struct {
	Timeout Duration `toml:"timeout"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Show: ShowConfig{
			Style: model.StylePlain.String(),
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		DBus: DBusConfig{
			Timeout: Duration(DefaultCallTimeout),
		},
	}
}

// ValidOutputFormats returns the accepted output formats.
func ValidOutputFormats() []string {
	return []string{"text", "json", "yaml"}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := model.ParseStyle(c.Show.Style); err != nil {
		return err
	}
	if c.Show.Position != "" {
		if _, err := model.ParsePosition(c.Show.Position); err != nil {
			return err
		}
	}
	if c.Show.Duration < 0 {
		return fmt.Errorf("show duration must not be negative, got %v", c.Show.Duration.Duration())
	}

	validFormat := false
	for _, f := range ValidOutputFormats() {
		if c.Output.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid output format %q, must be one of: %v", c.Output.Format, ValidOutputFormats())
	}

	if c.DBus.Timeout <= 0 {
		return fmt.Errorf("dbus timeout must be positive, got %v", c.DBus.Timeout.Duration())
	}
	return nil
}

// ConfigDir returns the toastkit config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName)
}

// ConfigPath returns the path to the CLI config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "toast.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	return writeTOML(path, c)
}

// writeTOML marshals v and writes it atomically via a temp file.
func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}
