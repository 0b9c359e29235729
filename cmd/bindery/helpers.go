package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// titleLabel renders a lowercase token for display, e.g. "install" -> "Install".
func titleLabel(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

// formatDuration renders a duration compactly, dropping sub-second noise
// once the value exceeds a second.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// formatTimestamp renders an absolute time with a relative hint, or "never"
// for the zero time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	elapsed := time.Since(t)
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("%s (%s ago)", t.Local().Format("2006-01-02 15:04"), formatAge(elapsed))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "moments"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// truncate shortens a string for table cells.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
