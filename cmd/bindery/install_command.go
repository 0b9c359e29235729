package main

import (
	"github.com/spf13/cobra"

	"bindery/internal/runner"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install [tool...]",
		Short: "Install missing tools",
		Long:  "Install the named tools, or every declared tool that is not on disk yet when no names are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, args, runner.ModeInstall)
		},
	}
}
