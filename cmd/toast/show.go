package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/dbus"
	"github.com/jmylchreest/toastkit/internal/model"
)

var showOpts struct {
	style    string
	position string
	duration time.Duration
	delay    time.Duration
	markup   bool
	wait     bool
	quiet    bool
}

var showCmd = &cobra.Command{
	Use:   "show [text...]",
	Short: "Queue a toast",
	Long: `Queue a toast and print its ID.

The text is taken from the arguments, or from stdin when the only argument
is "-". With --markup the text may contain <b>, <i>, <u>, <s>, <tt>,
<small>, <big> and <span> tags.

Durations accept Go syntax ("2s", "1500ms"). A zero duration uses the
daemon's default.

Examples:
  toast show "Build finished"
  toast show --style error --position top-center "Deploy failed"
  make 2>&1 | tail -n1 | toast show -
  toast show --wait --duration 5s "Backing up..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	addShowFlags(showCmd)
}

func addShowFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&showOpts.style, "style", "s", "",
		"Toast style: plain, success, error, warning")
	cmd.Flags().StringVarP(&showOpts.position, "position", "p", "",
		"Position, e.g. bottom-center, top-right (default: daemon setting)")
	cmd.Flags().DurationVarP(&showOpts.duration, "duration", "d", 0,
		"How long the toast stays visible")
	cmd.Flags().DurationVar(&showOpts.delay, "delay", 0,
		"Wait this long before showing, once the toast reaches the front of the queue")
	cmd.Flags().BoolVarP(&showOpts.markup, "markup", "m", false,
		"Treat the text as markup")
	cmd.Flags().BoolVarP(&showOpts.wait, "wait", "w", false,
		"Block until the toast has closed and print how it ended")
	cmd.Flags().BoolVarP(&showOpts.quiet, "quiet", "q", false,
		"Do not print the toast ID")
}

func runShow(cmd *cobra.Command, args []string) error {
	req, err := buildShowRequest(args, cmd.InOrStdin(), getConfig())
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	id, err := client.Show(ctx, req)
	cancel()
	if err != nil {
		return err
	}
	logger.Debug("toast queued", "id", id, "style", req.Style, "position", req.Position)

	if !showOpts.wait {
		if !showOpts.quiet {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	}

	outcome, err := client.WaitClosed(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("waiting for toast %s: %w", id, err)
	}
	if !showOpts.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, outcome)
	}
	if outcome == "failed" {
		return fmt.Errorf("toast %s could not be shown", id)
	}
	return nil
}

// buildShowRequest merges flags with the config defaults and validates the
// result before anything is sent.
func buildShowRequest(args []string, stdin io.Reader, cfg *config.Config) (dbus.ShowRequest, error) {
	text := strings.Join(args, " ")
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return dbus.ShowRequest{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}
	if strings.TrimSpace(text) == "" {
		return dbus.ShowRequest{}, model.ErrEmptyContent
	}

	req := dbus.ShowRequest{
		Text:     text,
		Markup:   showOpts.markup,
		Style:    firstNonEmpty(showOpts.style, cfg.Show.Style),
		Position: firstNonEmpty(showOpts.position, cfg.Show.Position),
		Duration: showOpts.duration,
		Delay:    showOpts.delay,
	}
	if req.Duration == 0 {
		req.Duration = cfg.Show.Duration.Duration()
	}

	if _, err := model.ParseStyle(req.Style); err != nil {
		return dbus.ShowRequest{}, err
	}
	if req.Position != "" {
		if _, err := model.ParsePosition(req.Position); err != nil {
			return dbus.ShowRequest{}, err
		}
	}
	if req.Duration < 0 || req.Delay < 0 {
		return dbus.ShowRequest{}, fmt.Errorf("duration and delay must not be negative")
	}
	if req.Markup {
		if _, err := model.StyledContent(req.Text); err != nil {
			return dbus.ShowRequest{}, err
		}
	}
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
