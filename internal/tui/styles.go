package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	correct  lipgloss.Style
	wrong    lipgloss.Style
	dim      lipgloss.Style
	table    table.Styles
}

func newStyles(noColor bool) styles {
	plain := lipgloss.NewStyle()
	if noColor {
		return styles{
			title:    plain.Bold(true),
			selected: plain.Bold(true),
			correct:  plain,
			wrong:    plain,
			dim:      plain,
			table:    table.DefaultStyles(),
		}
	}
	t := table.DefaultStyles()
	t.Header = t.Header.Foreground(lipgloss.Color("252")).Bold(true)
	return styles{
		title:    plain.Bold(true).Foreground(lipgloss.Color("205")),
		selected: plain.Foreground(lipgloss.Color("39")),
		correct:  plain.Bold(true).Foreground(lipgloss.Color("42")),
		wrong:    plain.Bold(true).Foreground(lipgloss.Color("196")),
		dim:      plain.Foreground(lipgloss.Color("241")),
		table:    t,
	}
}
