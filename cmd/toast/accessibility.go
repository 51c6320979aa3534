package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accessibilityCmd = &cobra.Command{
	Use:       "accessibility on|off",
	Aliases:   []string{"a11y"},
	Short:     "Turn screen reader announcements on or off",
	Long:      `Turn announcement of toast text to assistive technology on or off until the daemon config is next reloaded.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE:      runAccessibility,
}

func init() {
	rootCmd.AddCommand(accessibilityCmd)
}

func runAccessibility(cmd *cobra.Command, args []string) error {
	enabled := args[0] == "on"

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	if err := client.SetAccessibility(ctx, enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Announcements: %s\n", args[0])
	return nil
}
