package main

import (
	"fmt"
	"io"
	"time"

	"bindery/internal/checker"
	"bindery/internal/history"
	"bindery/internal/runner"
)

func renderTaskTable(out io.Writer, infos []runner.TaskInfo) {
	if len(infos) == 0 {
		return
	}
	now := time.Now()
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		elapsed := "-"
		if !info.StartedAt.IsZero() {
			elapsed = formatDuration(info.Elapsed(now))
		}
		rows = append(rows, []string{
			info.Binary,
			truncate(info.Source, 56),
			titleLabel(string(info.State)),
			elapsed,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Tool", "Source", "State", "Elapsed"},
		rows,
	))
}

// renderFailedOutput dumps captured installer output for failed tasks so the
// cause is visible without digging through logs.
func renderFailedOutput(out io.Writer, infos []runner.TaskInfo) {
	for _, info := range infos {
		if info.State != runner.StateFailed || len(info.Output) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", renderSectionHeader(info.Binary+" output"))
		for _, line := range info.Output {
			fmt.Fprintf(out, "%s%s\n", statusIndent, line)
		}
	}
}

func renderCheckResults(out io.Writer, results []checker.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No check results.")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		installed := res.InstalledVersion
		latest := res.LatestVersion
		status := "current"
		switch {
		case res.Err != nil:
			status = "check failed"
		case res.HasUpdate:
			status = "update available"
		}
		if installed == "" {
			installed = "-"
		}
		if latest == "" {
			latest = "-"
		}
		rows = append(rows, []string{res.Binary, installed, latest, status})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Tool", "Installed", "Latest", "Status"},
		rows,
	))
}

func renderHistory(out io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "History is empty.")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Binary,
			titleLabel(rec.Mode),
			titleLabel(rec.Outcome),
			formatDuration(rec.Duration()),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Finished", "Tool", "Mode", "Outcome", "Duration"},
		rows,
	))
}
