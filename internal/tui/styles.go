package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	good   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	bad    = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	muted  = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	border = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#45475A"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	phaseStyle  = lipgloss.NewStyle().Foreground(muted)
	statusStyle = lipgloss.NewStyle().Foreground(good)
	errorStyle  = lipgloss.NewStyle().Foreground(bad)
	helpStyle   = lipgloss.NewStyle().Foreground(muted)
	inputStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
)
