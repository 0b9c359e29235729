package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"bindery/internal/notify"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func colorizeOutput(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string) string {
	return fmt.Sprintf("== %s ==", strings.TrimSpace(title))
}

// attachEventPrinter mirrors hub messages onto the writer until the
// returned unsubscribe runs. Re-render signals carry no text and are
// skipped; the stateful commands print their own summaries.
func attachEventPrinter(hub *notify.Hub, out io.Writer, colorize bool) func() {
	return hub.Subscribe(func(event notify.Event) {
		var kind statusKind
		switch event.Kind {
		case notify.KindInfo:
			kind = statusInfo
		case notify.KindWarning:
			kind = statusWarn
		case notify.KindError:
			kind = statusError
		default:
			return
		}
		line := fmt.Sprintf("%s %s", statusKindLabel(kind), event.Message)
		if colorize {
			if color := statusKindColor(kind); color != "" {
				line = color + line + ansiReset
			}
		}
		fmt.Fprintln(out, line)
	})
}
