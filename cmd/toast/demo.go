package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/tuihost"
)

var demoOpts struct {
	daemonConfig string
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Try toasts in the terminal",
	Long: `Run the toast engine inside the terminal, without the daemon.

Toasts use the appearance from the daemon config. The bottom band toggled
with "k" stands in for an on-screen keyboard so obstruction avoidance can
be seen.

Key bindings:
  t, enter    Plain toast
  s / e / w   Success, error, warning toast
  m           Toast with markup
  b           Queue three toasts
  p, tab      Next position
  x           Cancel the visible toast
  X, esc      Cancel all toasts
  k           Toggle the keyboard band
  a           Toggle announcements
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoOpts.daemonConfig, "daemon-config", "",
		"Path to the daemon config file (default: ~/.config/toastkit/toastd.toml)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	path := firstNonEmpty(demoOpts.daemonConfig, config.DaemonConfigPath())
	daemonCfg, err := config.LoadDaemonConfigFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load daemon config: %w", err)
	}

	l, closeLog, err := demoLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	return tuihost.Run(cmd.Context(), tuihost.RunOptions{
		Logger:        l,
		Appearance:    daemonCfg.Appearance.Model(),
		Accessibility: daemonCfg.Accessibility.Announce,
	})
}

// demoLogger keeps logs off the screen the demo draws on. With --verbose
// they go to a file in the temp directory.
func demoLogger() (*slog.Logger, func(), error) {
	if !globalOpts.verbose {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	path := filepath.Join(os.TempDir(), "toast-demo.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open demo log: %w", err)
	}
	logger.Info("demo logging to file", "path", path)

	l := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return l, func() { _ = f.Close() }, nil
}
