package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bindery/internal/checker"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var ifDue bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check installed tools for newer versions",
		Long: "Check every installed tool for a newer published version. With --if-due the " +
			"check only runs when auto-checking is enabled and the configured frequency has " +
			"elapsed, and a positive finding may trigger an automatic update batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.close()

			out := cmd.OutOrStdout()
			unsubscribe := attachEventPrinter(app.hub, out, colorizeOutput(out))
			defer unsubscribe()

			if ifDue {
				app.checker.AutoCheck()
			} else {
				app.checker.Check(checker.CheckOptions{})
			}

			sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if app.checker.IsChecking() {
				if err := app.checker.Wait(sigCtx); err != nil {
					return fmt.Errorf("check interrupted")
				}
			}
			// An auto-triggered update batch keeps the process alive until it
			// drains; interrupting aborts it like a foreground batch.
			if app.runner.IsRunning() {
				if err := app.runner.Wait(sigCtx); err != nil {
					app.runner.Abort()
					_ = app.runner.Wait(context.Background())
					return fmt.Errorf("update batch aborted")
				}
				renderTaskTable(out, app.runner.Tasks())
			}

			renderCheckResults(out, app.checker.Results())
			return nil
		},
	}

	cmd.Flags().BoolVar(&ifDue, "if-due", false, "Only check when the configured frequency has elapsed")
	return cmd
}
