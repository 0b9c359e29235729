package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindery/internal/checker"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.close()
			app.checker.LoadCached()

			out := cmd.OutOrStdout()
			entries := app.registry.List()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No tools declared; add [tools.<name>] sections to the config.")
				return nil
			}

			cached := map[string]checker.Result{}
			for _, res := range app.checker.Results() {
				cached[res.Binary] = res
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				installed := "no"
				if path, ok := app.registry.ResolvePath(entry.Name); ok {
					installed = path
				}
				version := "-"
				if res, ok := cached[entry.Name]; ok && res.InstalledVersion != "" {
					version = res.InstalledVersion
					if res.HasUpdate {
						version += " (" + res.LatestVersion + " available)"
					}
				}
				rows = append(rows, []string{
					entry.Name,
					truncate(entry.Source, 48),
					joinOrDash(entry.Tags),
					installed,
					version,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Source", "Tags", "Installed", "Version"},
				rows,
			))
			return nil
		},
	}
}
