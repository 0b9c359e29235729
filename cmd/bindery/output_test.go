package main

import (
	"bytes"
	"strings"
	"testing"

	"bindery/internal/notify"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Installer", statusOK, "/usr/bin/go", false)
	requireContains(t, line, "Installer:")
	requireContains(t, line, "[OK] /usr/bin/go")
	if strings.Contains(line, ansiGreen) {
		t.Fatal("plain rendering must not include color codes")
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Installer", statusError, "missing", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red wrapping, got %q", line)
	}
}

func TestEventPrinterMirrorsMessages(t *testing.T) {
	hub := notify.NewHub()
	var buf bytes.Buffer
	unsubscribe := attachEventPrinter(hub, &buf, false)

	hub.Infof("checking %d tools", 3)
	hub.Warnf("unknown tool %q", "nonesuch")
	hub.StateChanged()
	unsubscribe()
	hub.Errorf("should not appear")

	out := buf.String()
	requireContains(t, out, "INFO checking 3 tools")
	requireContains(t, out, `WARN unknown tool "nonesuch"`)
	if strings.Contains(out, "should not appear") {
		t.Fatal("unsubscribe did not detach the printer")
	}
}

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"Tool", "State"},
		[][]string{{"gopls", "Done"}, {"dlv", "Failed"}},
	)
	// The rounded style upper-cases headers.
	requireContains(t, out, "TOOL")
	requireContains(t, out, "gopls")
	requireContains(t, out, "Failed")
}

func TestRenderTableRightAlignsDurations(t *testing.T) {
	out := renderTable(
		[]string{"Tool", "Elapsed"},
		[][]string{{"gopls", "1s"}, {"dlv", "10m00s"}},
	)
	// Right alignment pads the short value up against the column border.
	requireContains(t, out, " 1s │")
}
