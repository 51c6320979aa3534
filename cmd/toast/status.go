package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastkit/internal/dbus"
)

var statusOpts struct {
	output string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's queue state",
	Long: `Show whether the daemon is ready, how many toasts are waiting and
which toast is on screen.

Output formats:
  text    human readable (default)
  json    machine readable
  yaml    machine readable
  waybar  Waybar custom module JSON

For Waybar:

  "custom/toasts": {
    "exec": "toast status -o waybar",
    "interval": 2,
    "return-type": "json",
    "on-click": "toast cancel --all"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "",
		"Output format: text, json, yaml, waybar (default: config setting)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format := firstNonEmpty(statusOpts.output, getConfig().Output.Format)
	w := cmd.OutOrStdout()

	client, err := newClient()
	if err != nil {
		if format == "waybar" {
			return writeJSON(w, offlineStatus())
		}
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		if format == "waybar" {
			logger.Debug("daemon not reachable", "error", err)
			return writeJSON(w, offlineStatus())
		}
		return err
	}

	return writeStatus(w, status, format)
}

func writeStatus(w io.Writer, status dbus.StatusInfo, format string) error {
	switch format {
	case "json":
		return writeJSON(w, status)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(status)
	case "waybar":
		return writeJSON(w, waybarStatus(status))
	case "text", "":
		_, err := io.WriteString(w, formatStatusText(status))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func formatStatusText(s dbus.StatusInfo) string {
	var b strings.Builder

	ready := "waiting for a display"
	if s.Ready {
		ready = "yes"
	}
	fmt.Fprintf(&b, "Ready:          %s\n", ready)
	fmt.Fprintf(&b, "Queued:         %d\n", s.Queued)

	if s.CurrentID != "" {
		fmt.Fprintf(&b, "Showing:        %s\n", s.CurrentText)
		fmt.Fprintf(&b, "ID:             %s\n", s.CurrentID)
		if !s.ShownAt.IsZero() {
			fmt.Fprintf(&b, "Shown:          %s\n", humanize.Time(s.ShownAt))
		}
	} else {
		b.WriteString("Showing:        nothing\n")
	}

	announce := "off"
	if s.Accessibility {
		announce = "on"
	}
	fmt.Fprintf(&b, "Announcements:  %s\n", announce)
	return b.String()
}

// waybarStatus counts the visible toast together with the queue.
func waybarStatus(s dbus.StatusInfo) WaybarStatus {
	count := int(s.Queued)
	if s.CurrentID != "" {
		count++
	}

	if count == 0 {
		return WaybarStatus{Text: "", Alt: "idle", Class: "idle", Tooltip: "No toasts"}
	}

	var lines []string
	if s.CurrentID != "" {
		lines = append(lines, "Showing: "+s.CurrentText)
	}
	if s.Queued > 0 {
		lines = append(lines, fmt.Sprintf("Waiting: %d", s.Queued))
	}

	return WaybarStatus{
		Text:    fmt.Sprintf("%d", count),
		Alt:     "active",
		Class:   "active",
		Tooltip: strings.Join(lines, "\n"),
	}
}

func offlineStatus() WaybarStatus {
	return WaybarStatus{Text: "", Alt: "offline", Class: "offline", Tooltip: "toastd is not running"}
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
