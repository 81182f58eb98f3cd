// Package ui holds the terminal browsers for status and history results.
package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
)

func tableStyles(thm *theme.Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(thm.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(thm.Cyan)
	s.Cell = s.Cell.Foreground(thm.TextFg)
	s.Selected = s.Selected.
		Foreground(thm.AccentFg).
		Background(thm.Accent).
		Bold(true)
	return s
}

func newFilterInput(thm *theme.Theme, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 50
	ti.PromptStyle = lipgloss.NewStyle().Foreground(thm.Accent)
	ti.TextStyle = lipgloss.NewStyle().Foreground(thm.TextFg)
	ti.Blur()
	return ti
}

func titleStyle(thm *theme.Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(thm.Accent).Bold(true)
}

func mutedStyle(thm *theme.Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(thm.MutedFg)
}

func paneStyle(thm *theme.Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(thm.Border).
		Padding(0, 1)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
