package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada-remote/internal/notify"
)

// ------- minimal styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func statusLine(n notify.Notification) string {
	switch n.Level {
	case notify.Success:
		return successStyle.Render("✔ " + n.Message)
	case notify.Error:
		return errorStyle.Render("✖ " + n.Message)
	}
	if n.Message == "" {
		return ""
	}
	return mutedStyle.Render("• " + n.Message)
}
