package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorDanger    = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles holds lipgloss styles for human-readable output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the colored styles used on a terminal.
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			Width(14),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")),
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Error: lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// PlainStyles returns styles without color for pipes and files.
// Label keeps its width so columns still line up.
func PlainStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle().Width(14),
		Value:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
	}
}

// KindStyle returns the style for a result kind as named by git.KindName.
func (s *Styles) KindStyle(kind string) lipgloss.Style {
	switch kind {
	case "ok":
		return s.Success
	case "empty_change":
		return s.Muted
	case "rebase_conflict":
		return s.Warning
	case "cannot_find_reference", "repository_error", "error":
		return s.Error
	default:
		return s.Value
	}
}

// KindIcon returns an icon for a result kind.
func KindIcon(kind string) string {
	switch kind {
	case "ok":
		return "●"
	case "empty_change":
		return "○"
	case "rebase_conflict":
		return "⚠"
	case "cannot_find_reference", "repository_error", "error":
		return "✗"
	default:
		return "?"
	}
}
