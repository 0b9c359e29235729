package main

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{450 * time.Millisecond, "450ms"},
		{90 * time.Second, "1m30s"},
		{-time.Second, "0s"},
	}
	for _, tc := range tests {
		if got := formatDuration(tc.in); got != tc.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTimestampNever(t *testing.T) {
	if got := formatTimestamp(time.Time{}); got != "never" {
		t.Fatalf("zero time should read never, got %q", got)
	}
	got := formatTimestamp(time.Now().Add(-2 * time.Hour))
	requireContains(t, got, "2h ago")
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("expected ellipsis form, got %q", got)
	}
}

func TestTitleLabel(t *testing.T) {
	if got := titleLabel("install"); got != "Install" {
		t.Fatalf("titleLabel = %q", got)
	}
	if got := titleLabel("  failed "); got != "Failed" {
		t.Fatalf("titleLabel = %q", got)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping broken")
	}
}
