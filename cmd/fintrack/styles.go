package main

import (
	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			MarginBottom(1)

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// statusStyle colours a budget status: green, amber or red.
func statusStyle(s core.BudgetStatus) lipgloss.Style {
	switch s {
	case core.StatusOver:
		return errorStyle
	case core.StatusWarning:
		return warningStyle
	default:
		return successStyle
	}
}
