package ui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title  lipgloss.Style
	stats  lipgloss.Style
	cursor lipgloss.Style
	done   lipgloss.Style
	open   lipgloss.Style
	flash  lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
}

func newTheme(dark bool) theme {
	fg, muted, accent := lipgloss.Color("236"), lipgloss.Color("245"), lipgloss.Color("63")
	if dark {
		fg, muted, accent = lipgloss.Color("252"), lipgloss.Color("241"), lipgloss.Color("141")
	}
	return theme{
		title:  lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		stats:  lipgloss.NewStyle().Foreground(muted),
		cursor: lipgloss.NewStyle().Foreground(accent).Bold(true),
		done:   lipgloss.NewStyle().Foreground(muted).Strikethrough(true),
		open:   lipgloss.NewStyle().Foreground(fg),
		flash:  lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		help:   lipgloss.NewStyle().Foreground(muted).Faint(true),
	}
}
