package main

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminal backgrounds.
const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorAccent  = lipgloss.Color("#3B82F6")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	accentStyle  = lipgloss.NewStyle().Foreground(colorAccent)

	// Fixed-width columns of the mod table.
	indexCol  = lipgloss.NewStyle().Width(4).Align(lipgloss.Right).MarginRight(1)
	stateCol  = lipgloss.NewStyle().Width(4)
	nameCol   = lipgloss.NewStyle().Width(32).MarginRight(1)
	targetCol = lipgloss.NewStyle().Width(24).MarginRight(1)
)

func checkMark(enabled bool) string {
	if enabled {
		return successStyle.Render("[x]")
	}
	return mutedStyle.Render("[ ]")
}
