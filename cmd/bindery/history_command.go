package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent install and update outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.close()

			records, err := app.history.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			renderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.close()

			count, err := app.history.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entr%s\n", count, pluralY(count))
			return nil
		},
	}
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
