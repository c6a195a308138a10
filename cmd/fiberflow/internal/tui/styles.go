package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the dashboard.
type Styles struct {
	Title   lipgloss.Style
	Timer   lipgloss.Style
	Workers lipgloss.Style

	FiberActive    lipgloss.Style
	FiberParked    lipgloss.Style
	FiberComplete  lipgloss.Style
	FiberFailed    lipgloss.Style
	FiberCancelled lipgloss.Style
	FiberName      lipgloss.Style

	StatusComplete lipgloss.Style
	StatusFailed   lipgloss.Style
	StatusActive   lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style
}

// DefaultStyles returns the dashboard's default styling.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Workers: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		FiberActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		FiberParked:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		FiberComplete:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		FiberFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		FiberCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		FiberName:      lipgloss.NewStyle().Bold(true),

		StatusComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// Icons shown next to a fiber row.
const (
	IconActive    = "●"
	IconParked    = "⏸"
	IconComplete  = "✓"
	IconFailed    = "✗"
	IconCancelled = "⊘"
)
