package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastkit/internal/model"
)

// DaemonConfig is the configuration for toastd.
// Loaded from ~/.config/toastkit/toastd.toml
type DaemonConfig struct {
	Appearance    AppearanceConfig    `toml:"appearance"`
	Timing        TimingConfig        `toml:"timing"`
	Accessibility AccessibilityConfig `toml:"accessibility"`
	Obstruction   ObstructionConfig   `toml:"obstruction"`
	Display       DisplayConfig       `toml:"display"`
	Audio         AudioConfig         `toml:"audio"`
}

// AppearanceConfig is the default toast appearance.
type AppearanceConfig struct {
	Background    model.Color      `toml:"background"` // "#rrggbb" or "#rrggbbaa"
	Text          model.Color      `toml:"text"`
	FontFamily    string           `toml:"font_family"`
	FontSize      float64          `toml:"font_size"`
	FontWeight    model.FontWeight `toml:"font_weight"` // 400, 500, 600, 700
	CornerRadius  float64          `toml:"corner_radius"`
	Insets        InsetsConfig     `toml:"insets"`
	ShadowColor   model.Color      `toml:"shadow_color"`
	ShadowOpacity float64          `toml:"shadow_opacity"` // 0.0-1.0
	ShadowRadius  float64          `toml:"shadow_radius"`
	ShadowOffsetX float64          `toml:"shadow_offset_x"`
	ShadowOffsetY float64          `toml:"shadow_offset_y"`
	Position      model.Position   `toml:"position"` // "bottom-center", "top-left", etc.
}

// InsetsConfig is the padding around toast text.
type InsetsConfig struct {
	Top    float64 `toml:"top"`
	Left   float64 `toml:"left"`
	Bottom float64 `toml:"bottom"`
	Right  float64 `toml:"right"`
}

// TimingConfig contains default durations.
// Durations can be specified as "2s", "short", "long" or integer milliseconds.
type TimingConfig struct {
	Duration Duration       `toml:"duration"` // Hold time when a caller passes 0
	Mirror   MirrorTimeouts `toml:"mirror"`   // Hold time for mirrored notifications
}

// MirrorTimeouts contains hold times per notification urgency.
type MirrorTimeouts struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"`
}

// AccessibilityConfig contains screen reader settings.
type AccessibilityConfig struct {
	Announce bool `toml:"announce"` // Announce toast text after fade-in
}

// ObstructionConfig contains on-screen keyboard avoidance settings.
type ObstructionConfig struct {
	Enabled        bool    `toml:"enabled"`
	KeyboardHeight float64 `toml:"keyboard_height"` // Height reported when the keyboard is visible
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	Monitor     int    `toml:"monitor"`      // 0 = primary, 1+ = specific monitor
	MaxWidth    int    `toml:"max_width"`    // Maximum toast width in pixels
	Namespace   string `toml:"namespace"`    // Layer shell namespace
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
	Theme       string `toml:"theme"`        // bundled theme or file in the themes directory
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-style sound file paths.
type SoundConfig struct {
	Plain   string `toml:"plain"`
	Success string `toml:"success"`
	Error   string `toml:"error"`
	Warning string `toml:"warning"`
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Appearance: AppearanceConfigFrom(model.DefaultAppearance()),
		Timing: TimingConfig{
			Duration: Duration(model.DurationShort),
			Mirror: MirrorTimeouts{
				Low:      Duration(model.DurationShort),
				Normal:   Duration(model.DurationLong),
				Critical: Duration(5 * time.Second),
			},
		},
		Accessibility: AccessibilityConfig{
			Announce: true,
		},
		Obstruction: ObstructionConfig{
			Enabled:        true,
			KeyboardHeight: 280,
		},
		Display: DisplayConfig{
			Monitor:     0,
			MaxWidth:    480,
			Namespace:   "toastd",
			ColorScheme: string(ColorSchemeSystem),
			Theme:       "default",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// AppearanceConfigFrom converts an appearance into its config form.
func AppearanceConfigFrom(a model.Appearance) AppearanceConfig {
	return AppearanceConfig{
		Background:    a.BackgroundColor,
		Text:          a.TextColor,
		FontFamily:    a.Font.Family,
		FontSize:      a.Font.Size,
		FontWeight:    a.Font.Weight,
		CornerRadius:  a.CornerRadius,
		Insets:        InsetsConfig(a.TextInsets),
		ShadowColor:   a.ShadowColor,
		ShadowOpacity: a.ShadowOpacity,
		ShadowRadius:  a.ShadowRadius,
		ShadowOffsetX: a.ShadowOffset.X,
		ShadowOffsetY: a.ShadowOffset.Y,
		Position:      a.DefaultPosition,
	}
}

// Model returns the appearance described by the config.
func (a AppearanceConfig) Model() model.Appearance {
	return model.Appearance{
		BackgroundColor: a.Background,
		TextColor:       a.Text,
		Font: model.Font{
			Family: a.FontFamily,
			Size:   a.FontSize,
			Weight: a.FontWeight,
		},
		CornerRadius:    a.CornerRadius,
		TextInsets:      model.Insets(a.Insets),
		ShadowColor:     a.ShadowColor,
		ShadowOpacity:   a.ShadowOpacity,
		ShadowRadius:    a.ShadowRadius,
		ShadowOffset:    model.Offset{X: a.ShadowOffsetX, Y: a.ShadowOffsetY},
		DefaultPosition: a.Position,
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() string {
	return filepath.Join(ConfigDir(), "toastd.toml")
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	return LoadDaemonConfigFrom(DaemonConfigPath())
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to path,
// or to the default path when path is empty.
func SaveDaemonConfig(config *DaemonConfig, path string) error {
	if path == "" {
		path = DaemonConfigPath()
	}
	return writeTOML(path, config)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if err := c.Appearance.Model().Validate(); err != nil {
		return fmt.Errorf("appearance: %w", err)
	}

	if c.Timing.Duration < 0 {
		return fmt.Errorf("timing duration must not be negative, got %v", c.Timing.Duration.Duration())
	}

	if c.Obstruction.KeyboardHeight < 0 {
		return fmt.Errorf("keyboard_height must not be negative, got %v", c.Obstruction.KeyboardHeight)
	}

	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must not be negative, got %d", c.Display.Monitor)
	}
	if c.Display.MaxWidth < 100 || c.Display.MaxWidth > 2000 {
		return fmt.Errorf("max_width must be between 100 and 2000, got %d", c.Display.MaxWidth)
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Display.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Display.ColorScheme, ValidColorSchemes())
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// DurationOrDefault returns d, or the configured default hold time when d is 0.
func (c *DaemonConfig) DurationOrDefault(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return c.Timing.Duration.Duration()
}

// MirrorTimeout returns the hold time for a mirrored notification.
// An expire timeout from the sender, when positive, takes precedence.
func (c *DaemonConfig) MirrorTimeout(urgency byte, expireMs int32) time.Duration {
	if expireMs > 0 {
		return time.Duration(expireMs) * time.Millisecond
	}
	switch urgency {
	case 0:
		return c.Timing.Mirror.Low.Duration()
	case 2:
		return c.Timing.Mirror.Critical.Duration()
	default:
		return c.Timing.Mirror.Normal.Duration()
	}
}

// SoundForStyle returns the sound file path for a style.
// Expands ~ to home directory. Plain toasts fall back to no sound.
func (c *DaemonConfig) SoundForStyle(style model.Style) string {
	var path string
	switch style {
	case model.StyleSuccess:
		path = c.Audio.Sounds.Success
	case model.StyleError:
		path = c.Audio.Sounds.Error
	case model.StyleWarning:
		path = c.Audio.Sounds.Warning
	default:
		path = c.Audio.Sounds.Plain
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
