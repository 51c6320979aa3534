package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "plain", cfg.Show.Style)
	assert.Empty(t, cfg.Show.Position)
	assert.Zero(t, cfg.Show.Duration)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, DefaultCallTimeout, cfg.DBus.Timeout.Duration())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/toast.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toast.toml")

	content := `
[show]
style = "warning"
position = "top-right"
duration = "long"

[output]
format = "yaml"

[dbus]
timeout = 1500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "warning", cfg.Show.Style)
	assert.Equal(t, "top-right", cfg.Show.Position)
	assert.Equal(t, 3500*time.Millisecond, cfg.Show.Duration.Duration())
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, 1500*time.Millisecond, cfg.DBus.Timeout.Duration())
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toast.toml")

	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"json\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "plain", cfg.Show.Style)
	assert.Equal(t, DefaultCallTimeout, cfg.DBus.Timeout.Duration())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `this is not valid toml [`},
		{"bad style", "[show]\nstyle = \"loud\"\n"},
		{"bad position", "[show]\nposition = \"upstairs\"\n"},
		{"bad format", "[output]\nformat = \"xml\"\n"},
		{"bad duration", "[show]\nduration = \"whenever\"\n"},
		{"zero timeout", "[dbus]\ntimeout = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "toast.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "toast.toml")

	cfg := DefaultConfig()
	cfg.Show.Style = "success"
	cfg.Show.Duration = Duration(1500 * time.Millisecond)

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "2500", want: 2500 * time.Millisecond},
		{in: "0", want: 0},
		{in: "300ms", want: 300 * time.Millisecond},
		{in: "short", want: 2 * time.Second},
		{in: "long", want: 3500 * time.Millisecond},
		{in: "-2s", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/toastkit/toast.toml", ConfigPath())
	assert.Equal(t, "/custom/config/toastkit/toastd.toml", DaemonConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, ConfigPath(), filepath.Join("toastkit", "toast.toml"))
}
