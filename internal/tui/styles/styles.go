package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	Primary   = lipgloss.Color("#F472B6") // Pink
	Secondary = lipgloss.Color("#A78BFA") // Lavender

	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red

	Border    = lipgloss.Color("#4B5563")
	Text      = lipgloss.Color("#F9FAFB")
	TextMuted = lipgloss.Color("#9CA3AF")
	TextDim   = lipgloss.Color("#6B7280")

	// Discord blurple
	Blurple = lipgloss.Color("#5865F2")
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
		Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	Failed = lipgloss.NewStyle().
		Foreground(Error)

	Discord = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blurple)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
)

// Panel creates a padded panel style.
func Panel() lipgloss.Style {
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string) string {
	return Highlight.Render(" " + title + " ")
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing, paused bool) string {
	switch {
	case !playing:
		return Dim.Render("■")
	case paused:
		return Paused.Render("⏸")
	default:
		return Playing.Render("▶")
	}
}

// State colours a connection status line by its prefix.
func State(s string) string {
	switch {
	case s == "Connected":
		return Playing.Render(s)
	case strings.HasPrefix(s, "Error"), strings.Contains(s, "halted"):
		return Failed.Render(s)
	case strings.HasPrefix(s, "Disconnected"), strings.HasPrefix(s, "Connecting"):
		return Paused.Render(s)
	default:
		return Muted.Render(s)
	}
}
