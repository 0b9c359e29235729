package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindery/internal/runner"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var onlyPending bool

	cmd := &cobra.Command{
		Use:   "update [tool...]",
		Short: "Reinstall tools at their latest versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 && onlyPending {
				app, err := ctx.ensureApp()
				if err != nil {
					return err
				}
				app.checker.LoadCached()
				names = app.checker.Updates()
				if len(names) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending updates recorded; run `bindery check` first.")
					return nil
				}
			}
			return runBatch(cmd, ctx, names, runner.ModeUpdate)
		},
	}

	cmd.Flags().BoolVar(&onlyPending, "pending", false, "Only update tools the last check flagged")
	return cmd
}
