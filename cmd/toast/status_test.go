package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastkit/internal/dbus"
)

func TestFormatStatusText(t *testing.T) {
	text := formatStatusText(dbus.StatusInfo{
		Ready:         true,
		Queued:        2,
		CurrentID:     "01J0000000000000000000000",
		CurrentText:   "Saved",
		ShownAt:       time.Now().Add(-3 * time.Second),
		Accessibility: true,
	})

	assert.Contains(t, text, "Ready:          yes")
	assert.Contains(t, text, "Queued:         2")
	assert.Contains(t, text, "Showing:        Saved")
	assert.Contains(t, text, "seconds ago")
	assert.Contains(t, text, "Announcements:  on")
}

func TestFormatStatusText_Idle(t *testing.T) {
	text := formatStatusText(dbus.StatusInfo{})
	assert.Contains(t, text, "waiting for a display")
	assert.Contains(t, text, "Showing:        nothing")
	assert.NotContains(t, text, "Shown:")
}

func TestWaybarStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    dbus.StatusInfo
		wantText  string
		wantClass string
	}{
		{"idle", dbus.StatusInfo{Ready: true}, "", "idle"},
		{"queued only", dbus.StatusInfo{Queued: 3}, "3", "active"},
		{"visible and queued", dbus.StatusInfo{Queued: 1, CurrentID: "a", CurrentText: "hi"}, "2", "active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := waybarStatus(tt.status)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantClass, got.Class)
		})
	}
}

func TestWriteStatus_Formats(t *testing.T) {
	status := dbus.StatusInfo{Ready: true, Queued: 1, CurrentID: "abc", CurrentText: "hello"}

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, status, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["current_id"])
	assert.Equal(t, true, decoded["ready"])

	buf.Reset()
	require.NoError(t, writeStatus(&buf, status, "yaml"))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "hello", fromYAML["current_text"])

	buf.Reset()
	require.NoError(t, writeStatus(&buf, status, "waybar"))
	assert.Contains(t, buf.String(), `"class":"active"`)

	assert.Error(t, writeStatus(&buf, status, "xml"))
}
