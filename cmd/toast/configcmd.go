package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastkit/internal/config"
)

var configOpts struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "toast:  %s\n", firstNonEmpty(globalOpts.configPath, config.ConfigPath()))
		fmt.Fprintf(cmd.OutOrStdout(), "toastd: %s\n", config.DaemonConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default config files",
	Long: `Write the default toast and toastd config files.

Existing files are left alone unless --force is given. A running toastd
picks up changes to its file without a restart.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVarP(&configOpts.force, "force", "f", false,
		"Overwrite existing files")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cliPath := firstNonEmpty(globalOpts.configPath, config.ConfigPath())
	daemonPath := config.DaemonConfigPath()

	write := func(path string, save func(string) error) error {
		if !configOpts.force {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "exists, skipped: %s\n", path)
				return nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
		if err := save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	}

	if err := write(cliPath, config.DefaultConfig().Save); err != nil {
		return err
	}
	return write(daemonPath, func(path string) error {
		return config.SaveDaemonConfig(config.DefaultDaemonConfig(), path)
	})
}
