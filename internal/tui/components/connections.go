package components

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/musiccat/musiccat-rpc/internal/host"
	"github.com/musiccat/musiccat-rpc/internal/tui/styles"
)

// Connections displays the Discord and feed status and every supervised task
// that is not healthy.
type Connections struct{}

// NewConnections creates a new Connections component
func NewConnections() *Connections {
	return &Connections{}
}

// Render renders the connections panel
func (c *Connections) Render(st host.Status, now time.Time, width, height int) string {
	title := styles.PanelTitle("Connections")

	lines := []string{
		c.row("Discord", st.Discord),
		c.row("Feed", st.Feed),
	}

	if len(st.Tasks) > 0 {
		lines = append(lines, "", styles.Label.Render("Tasks"))
		names := make([]string, 0, len(st.Tasks))
		for name := range st.Tasks {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			lines = append(lines, "  "+styles.State(st.Tasks[name]))
		}
	}

	if !st.UpdatedAt.IsZero() {
		updated := humanize.RelTime(st.UpdatedAt, now, "ago", "from now")
		lines = append(lines, "", styles.Dim.Render("updated "+updated))
	}

	panel := styles.Panel().
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, lines...)...,
	))
}

func (c *Connections) row(label, value string) string {
	return fmt.Sprintf("%s %s", styles.Label.Width(9).Render(label), styles.State(value))
}
