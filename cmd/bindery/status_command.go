package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tool and update-check status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.close()
			app.checker.LoadCached()

			out := cmd.OutOrStdout()
			colorize := colorizeOutput(out)

			fmt.Fprintln(out, renderSectionHeader("Configuration"))
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail += " (not found, defaults in use)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Bin directory", statusInfo, app.cfg.Install.BinDir, colorize))
			for _, status := range deps.CheckBinaries(deps.DefaultRequirements(app.cfg)) {
				kind := statusOK
				detail := status.Path
				if !status.Available {
					detail = status.Detail
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(out, renderStatusLine(titleLabel(status.Name), kind, detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Tools"))
			var missing []string
			for _, name := range app.registry.Names() {
				if !app.registry.IsInstalled(name) {
					missing = append(missing, name)
				}
			}
			total := app.registry.Len()
			fmt.Fprintln(out, renderStatusLine("Declared", statusInfo, fmt.Sprintf("%d", total), colorize))
			installedKind := statusOK
			if len(missing) > 0 {
				installedKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Installed", installedKind,
				fmt.Sprintf("%d of %d", total-len(missing), total), colorize))
			if len(missing) > 0 {
				fmt.Fprintln(out, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Updates"))
			fmt.Fprintln(out, renderStatusLine("Auto-check", statusInfo,
				fmt.Sprintf("%s (every %s)", yesNo(app.cfg.Updates.AutoCheck), app.cfg.Updates.Frequency), colorize))
			fmt.Fprintln(out, renderStatusLine("Auto-update", statusInfo, yesNo(app.cfg.Updates.AutoUpdate), colorize))
			fmt.Fprintln(out, renderStatusLine("Last check", statusInfo, formatTimestamp(app.checker.LastCheck()), colorize))
			if updates := app.checker.Updates(); len(updates) > 0 {
				fmt.Fprintln(out, renderStatusLine("Pending", statusWarn, strings.Join(updates, ", "), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Pending", statusOK, "none recorded", colorize))
			}
			return nil
		},
	}
}
