// Package tui styles the diagnostics log2src writes to stderr. stdout is
// reserved for the JSON stream, so everything here targets stderr and
// drops color when it is not a terminal.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	// WarningStyle marks recoverable, file-scope problems.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	// ErrorStyle marks fatal diagnostics.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	// MutedStyle de-emphasizes progress notes.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// colorEnabled is resolved once; stderr styling follows the terminal.
var colorEnabled = isatty.IsTerminal(os.Stderr.Fd())

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// Warnf prints a styled warning line to stderr.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n",
		render(WarningStyle, "warning:"), fmt.Sprintf(format, args...))
}

// Errorf prints a styled error line to stderr.
func Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n",
		render(ErrorStyle, "error:"), fmt.Sprintf(format, args...))
}

// Mutedf prints a de-emphasized note to stderr.
func Mutedf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(MutedStyle, fmt.Sprintf(format, args...)))
}
