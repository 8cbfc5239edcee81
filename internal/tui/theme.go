package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the menu uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext1 lipgloss.Color = "#bac2de"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorWarning = colorYellow
)
