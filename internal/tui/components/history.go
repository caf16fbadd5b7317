package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/tui/styles"
)

// HistoryLimit is the number of tracks kept for the session.
const HistoryLimit = 50

// HistoryEntry represents a track seen during this session
type HistoryEntry struct {
	Track    core.Track
	PlayedAt time.Time
}

// History displays tracks seen since the dashboard started
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Add records track as the newest entry unless it already is.
func Add(entries []HistoryEntry, track core.Track, at time.Time) []HistoryEntry {
	if track.URI == "" && track.Title == "" {
		return entries
	}
	if len(entries) > 0 && entries[0].Track.URI == track.URI && entries[0].Track.Title == track.Title {
		return entries
	}
	entries = append([]HistoryEntry{{Track: track, PlayedAt: at}}, entries...)
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}
	return entries
}

// Render renders the history panel
func (h *History) Render(entries []HistoryEntry, now time.Time, width, height int) string {
	title := styles.PanelTitle("This Session")

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No tracks yet")
	} else {
		content = h.renderHistory(entries, now, width-4, height-4)
	}

	panel := styles.Panel().
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderHistory(entries []HistoryEntry, now time.Time, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	// Fixed overhead: " - " (3) + padding for time (8)
	const overhead = 11

	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		timeAgo := formatTimeAgo(entry.PlayedAt, now)
		timeWidth := len(timeAgo)

		available := width - overhead - timeWidth
		title := entry.Track.Title
		author := entry.Track.Author
		if len([]rune(title))+len([]rune(author)) > available {
			// Give the author at least a third of the space (min 8 chars)
			authorSpace := min(max(available/3, 8), len([]rune(author)))
			title = truncate(title, max(available-authorSpace, 1))
			author = truncate(author, authorSpace)
		}

		info := fmt.Sprintf("%s - %s", title, author)
		padding := max(width-lipgloss.Width(info)-timeWidth, 1)

		lines = append(lines, fmt.Sprintf("%s%s%s",
			info,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
