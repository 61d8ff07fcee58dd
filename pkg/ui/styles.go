// Package ui renders gate check results to the terminal.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color palette
var (
	// Severity colors (matching OWASP standards)
	Critical = lipgloss.Color("#FF0000") // Bright red
	High     = lipgloss.Color("#FF6B6B") // Red/Orange
	Medium   = lipgloss.Color("#FFD93D") // Yellow
	Low      = lipgloss.Color("#6BCB77") // Green

	// Status colors
	Pass    = lipgloss.Color("#00D26A") // Green
	Fail    = lipgloss.Color("#FF3838") // Red
	Warning = lipgloss.Color("#FFB800") // Amber
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	PassStyle = lipgloss.NewStyle().
			Foreground(Pass).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Fail).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D4AA")).
			Underline(true)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// SeverityStyle returns the appropriate style for a severity level
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch severity {
	case "Critical":
		return base.Foreground(Critical)
	case "High":
		return base.Foreground(High)
	case "Medium":
		return base.Foreground(Medium)
	case "Low":
		return base.Foreground(Low)
	default:
		return base.Foreground(Muted)
	}
}

func init() {
	lipgloss.SetColorProfile(colorProfile())
}

// colorProfile downgrades to plain text when NO_COLOR is set or stdout
// is not a terminal (CI logs, pipes).
func colorProfile() termenv.Profile {
	if termenv.EnvNoColor() {
		return termenv.Ascii
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
