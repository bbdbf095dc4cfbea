package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Accent colors for the header and spinner.
const (
	ColorAccent lipgloss.Color = "#00B7FF" // Azure blue
	ColorBorder lipgloss.Color = "#3A3F4B"
)

// SpinnerColors cycles while a spinner animates.
var SpinnerColors = []lipgloss.Color{ColorAccent, ColorInfo, ColorSecondary, ColorInfo}
