package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	badgeActive   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badgeInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	badgePending  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func statusBadge(s schema.Status) string {
	switch s {
	case schema.StatusActive:
		return badgeActive.Render("● active")
	case schema.StatusInactive:
		return badgeInactive.Render("● inactive")
	default:
		return badgePending.Render("● pending")
	}
}
