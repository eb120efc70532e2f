package main

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s *string) string { return dash(deref(s)) }

// formatTime renders t in local time, minute precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// bodyWidth is the width left for a free-text column after fixed columns
// take reserved characters. Non-terminal output gets fallback.
func bodyWidth(out io.Writer, reserved, fallback int) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w-reserved < fallback {
		return fallback
	}
	return w - reserved
}
