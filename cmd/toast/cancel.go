package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelOpts struct {
	all bool
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel toasts",
	Long: `Cancel a toast by ID, the visible toast, or everything.

Without arguments the toast currently on screen is dismissed and the next
one in the queue takes its place. With an ID, that toast is cancelled
whether it is visible or still waiting. With --all, the queue is emptied
and the visible toast is dismissed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().BoolVarP(&cancelOpts.all, "all", "a", false,
		"Cancel every queued and visible toast")
}

func runCancel(cmd *cobra.Command, args []string) error {
	if cancelOpts.all && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with an ID")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	switch {
	case cancelOpts.all:
		if err := client.CancelAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled all toasts")

	case len(args) == 1:
		found, err := client.Cancel(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no active toast with ID %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])

	default:
		visible, err := client.CancelCurrent(ctx)
		if err != nil {
			return err
		}
		if !visible {
			fmt.Fprintln(cmd.OutOrStdout(), "No toast visible")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled current toast")
	}
	return nil
}
