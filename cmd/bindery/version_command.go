package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(out, "bindery (unknown build)")
				return nil
			}
			version := info.Main.Version
			if version == "" || version == "(devel)" {
				version = "devel"
			}
			fmt.Fprintf(out, "bindery %s (%s)\n", version, info.GoVersion)
			return nil
		},
	}
}
