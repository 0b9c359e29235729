package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bindery/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment bindery runs in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := colorizeOutput(out)
			healthy := true

			fmt.Fprintln(out, renderSectionHeader("External binaries"))
			for _, status := range deps.CheckBinaries(deps.DefaultRequirements(cfg)) {
				kind := statusOK
				detail := status.Path
				if !status.Available {
					detail = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						healthy = false
					}
				}
				fmt.Fprintln(out, renderStatusLine(titleLabel(status.Name), kind, detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Directories"))
			dirs := []struct {
				label string
				path  string
			}{
				{"Bin directory", cfg.Install.BinDir},
				{"Data directory", cfg.Paths.DataDir},
				{"Log directory", cfg.Paths.LogDir},
			}
			for _, dir := range dirs {
				if err := checkWritable(dir.path); err != nil {
					fmt.Fprintln(out, renderStatusLine(dir.label, statusError, err.Error(), colorize))
					healthy = false
					continue
				}
				fmt.Fprintln(out, renderStatusLine(dir.label, statusOK, dir.path, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Tools"))
			if len(cfg.Tools) == 0 {
				fmt.Fprintln(out, renderStatusLine("Declared", statusWarn, "none; add [tools.<name>] sections", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Declared", statusOK, fmt.Sprintf("%d", len(cfg.Tools)), colorize))
			}

			if !healthy {
				return errors.New("environment has problems; see output above")
			}
			return nil
		},
	}
}

// checkWritable verifies the directory exists (creating it if needed) and
// accepts a temp file.
func checkWritable(path string) error {
	if path == "" {
		return errors.New("not configured")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create: %v", err)
	}
	probe := filepath.Join(path, ".bindery-doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("not writable: %v", err)
	}
	return os.Remove(probe)
}
