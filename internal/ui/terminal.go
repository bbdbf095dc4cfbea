package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ConfigureColor picks the lipgloss color profile. Color is disabled when
// noColor is set, when NO_COLOR is in the environment, or when stdout is
// not a terminal.
func ConfigureColor(noColor bool) {
	if noColor || termenv.EnvNoColor() || !IsTTY(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// ColorEnabled reports whether styled output currently emits color.
func ColorEnabled() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}
