package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor decides whether tl output gets ANSI colors. Precedence:
// NO_COLOR (off) beats CLICOLOR_FORCE=1 (on) beats CLICOLOR=0 (off) beats
// TTY detection on stdout.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		// https://no-color.org — any non-empty value disables color.
		return false
	case strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1":
		return true
	case strings.TrimSpace(os.Getenv("CLICOLOR")) == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
