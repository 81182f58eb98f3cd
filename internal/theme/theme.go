// Package theme provides the color palettes used by the status and history browsers.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// Theme defines the colors used by the UI.
type Theme struct {
	Accent    lipgloss.Color
	AccentFg  lipgloss.Color // Foreground color for text on Accent background
	Border    lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	SuccessFg lipgloss.Color
	WarnFg    lipgloss.Color
	ErrorFg   lipgloss.Color
	Cyan      lipgloss.Color
}

// Theme names.
const (
	DraculaName    = "dracula"
	NordName       = "nord"
	CleanLightName = "clean-light"
)

// Dracula returns the Dracula theme.
func Dracula() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#BD93F9"),
		AccentFg:  lipgloss.Color("#282A36"),
		Border:    lipgloss.Color("#6272A4"),
		MutedFg:   lipgloss.Color("#6272A4"),
		TextFg:    lipgloss.Color("#F8F8F2"),
		SuccessFg: lipgloss.Color("#50FA7B"),
		WarnFg:    lipgloss.Color("#FFB86C"),
		ErrorFg:   lipgloss.Color("#FF5555"),
		Cyan:      lipgloss.Color("#8BE9FD"),
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#88C0D0"),
		AccentFg:  lipgloss.Color("#2E3440"),
		Border:    lipgloss.Color("#4C566A"),
		MutedFg:   lipgloss.Color("#81A1C1"),
		TextFg:    lipgloss.Color("#E5E9F0"),
		SuccessFg: lipgloss.Color("#A3BE8C"),
		WarnFg:    lipgloss.Color("#EBCB8B"),
		ErrorFg:   lipgloss.Color("#BF616A"),
		Cyan:      lipgloss.Color("#88C0D0"),
	}
}

// CleanLight returns a light theme for bright terminals.
func CleanLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#C6DBE5"),
		AccentFg:  lipgloss.Color("#24292F"),
		Border:    lipgloss.Color("#D0D7DE"),
		MutedFg:   lipgloss.Color("#6E7781"),
		TextFg:    lipgloss.Color("#24292F"),
		SuccessFg: lipgloss.Color("#059669"),
		WarnFg:    lipgloss.Color("#D97706"),
		ErrorFg:   lipgloss.Color("#DC2626"),
		Cyan:      lipgloss.Color("#0891B2"),
	}
}

// GetTheme returns a theme by name, or Dracula if not found.
func GetTheme(name string) *Theme {
	switch name {
	case NordName:
		return Nord()
	case CleanLightName:
		return CleanLight()
	default:
		return Dracula()
	}
}

// NormalizeName lowercases name and returns it when it names a known theme,
// or the empty string otherwise.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range AvailableThemes() {
		if name == known {
			return name
		}
	}
	return ""
}

// AvailableThemes returns a list of available theme names.
func AvailableThemes() []string {
	return []string{DraculaName, NordName, CleanLightName}
}

// StatusColor picks the color a status kind is rendered with.
func (t *Theme) StatusColor(kind models.StatusKind) lipgloss.Color {
	switch kind {
	case models.StatusModified:
		return t.WarnFg
	case models.StatusAdded:
		return t.SuccessFg
	case models.StatusDeleted, models.StatusConflict:
		return t.ErrorFg
	default:
		return t.MutedFg
	}
}
