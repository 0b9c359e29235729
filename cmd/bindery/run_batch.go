package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bindery/internal/runner"
)

// runBatch drives one install or update batch to completion, mirroring hub
// messages to the terminal and rendering the final task table. An interrupt
// aborts the batch instead of orphaning installer processes.
func runBatch(cmd *cobra.Command, cmdCtx *commandContext, names []string, mode runner.Mode) error {
	app, err := cmdCtx.ensureApp()
	if err != nil {
		return err
	}
	defer app.close()

	out := cmd.OutOrStdout()
	unsubscribe := attachEventPrinter(app.hub, out, colorizeOutput(out))
	defer unsubscribe()

	if len(names) == 0 {
		names = app.registry.Names()
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No tools declared; add [tools.<name>] sections to the config.")
		return nil
	}

	app.runner.Request(names, mode)

	aborted := false
	if app.runner.IsRunning() {
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := app.runner.Wait(sigCtx); err != nil {
			app.runner.Abort()
			_ = app.runner.Wait(context.Background())
			aborted = true
		}
	}

	infos := app.runner.Tasks()
	if len(infos) > 0 {
		renderTaskTable(out, infos)
		renderFailedOutput(out, infos)
	}
	if aborted {
		return fmt.Errorf("%s batch aborted", mode)
	}
	if stats := app.runner.Stats(); stats.Failed > 0 {
		return fmt.Errorf("%d task(s) failed", stats.Failed)
	}
	return nil
}
