package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// Dashboard palette, built on the shared ui colors.
const (
	ColorAccent        = ui.ColorAccent
	ColorBorder        = ui.ColorBorder
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B8C5")
	ColorTextMuted     = lipgloss.Color("#6B7080")
	ColorHealthy       = lipgloss.Color("#3DDC84")
	ColorWarning       = lipgloss.Color("#FFAA00")
	ColorCritical      = lipgloss.Color("#FF4D4F")
	ColorBusy          = lipgloss.Color("#4DA3FF")
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	NewMarkerStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1)
)

// classificationColor picks the count color for a classification.
func classificationColor(c inventory.Classification) lipgloss.Color {
	switch c {
	case inventory.Pending, inventory.Unassessed:
		return ColorWarning
	case inventory.InProgress, inventory.Rebooting:
		return ColorBusy
	case inventory.RecentlyCompleted:
		return ColorHealthy
	case inventory.Failed:
		return ColorCritical
	default:
		return ColorTextSecondary
	}
}

// statusStyle colors an installation status.
func statusStyle(s inventory.Status) lipgloss.Style {
	switch s {
	case inventory.StatusSucceeded:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	case inventory.StatusFailed:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	case inventory.StatusCompletedWithWarnings:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case inventory.StatusInProgress:
		return lipgloss.NewStyle().Foreground(ColorBusy)
	default:
		return MutedStyle
	}
}
