package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/tui/styles"
)

// NowPlaying displays the current track with an extrapolated progress bar.
type NowPlaying struct {
	bar progress.Model
}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{
		bar: progress.New(
			progress.WithGradient(string(styles.Secondary), string(styles.Primary)),
			progress.WithoutPercentage(),
		),
	}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(snap *core.Snapshot, now time.Time, width, height int) string {
	title := styles.PanelTitle("Now Playing")

	var content string
	if snap == nil {
		content = styles.Muted.Render("Waiting for the status feed...")
	} else if !snap.IsPlaying {
		content = styles.Muted.Render("Nothing playing")
	} else {
		content = n.renderTrack(*snap, now, width-4)
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

func (n *NowPlaying) renderTrack(snap core.Snapshot, now time.Time, width int) string {
	track := snap.Track

	icon := styles.StatusIcon(snap.IsPlaying, snap.IsPaused)
	title := styles.Title.Width(width - 4).Render(track.Title)
	author := styles.Subtitle.Render(track.Author)

	source := track.SourceName
	if source == "" {
		source = "unknown source"
	}

	var progressLine string
	if track.IsStream || track.Length <= 0 {
		progressLine = styles.Playing.Render("● LIVE")
	} else {
		// Room for the times on either side
		n.bar.Width = max(width-14, 10)
		pos := min(snap.Track.Progress(), track.Duration())
		if snap.Active() {
			pos = min(snap.PositionAt(now), track.Duration())
		}
		progressLine = fmt.Sprintf("%s %s %s",
			FormatDuration(pos),
			n.bar.ViewAs(snap.ProgressPercent(now)/100),
			FormatDuration(track.Duration()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+author,
		"  "+styles.Dim.Render(source),
		"",
		progressLine,
	)
}

// FormatDuration formats d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
