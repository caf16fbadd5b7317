// Package tray shows the daemon status in the system tray.
package tray

import (
	"context"
	"log/slog"

	"fyne.io/systray"

	"github.com/musiccat/musiccat-rpc/internal/host"
)

// Title is the tray title and the first menu entry.
const Title = "MusicCat RPC"

// Run shows the tray icon until ctx is cancelled or the user picks Exit, in
// which case stop is called. It must be called from the main goroutine.
func Run(ctx context.Context, reporter *host.Reporter, stop context.CancelFunc, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	updates, unsubscribe := reporter.Subscribe()

	onReady := func() {
		icon, err := Icon()
		if err != nil {
			log.Warn("building tray icon", "error", err)
		} else {
			systray.SetIcon(icon)
		}
		systray.SetTitle(Title)

		st := reporter.Status()
		systray.SetTooltip(host.Tooltip(st))

		header := systray.AddMenuItem(Title, "")
		header.Disable()
		discord := systray.AddMenuItem(discordLine(st), "")
		discord.Disable()
		track := systray.AddMenuItem(trackLine(st), "")
		track.Disable()
		systray.AddSeparator()
		exit := systray.AddMenuItem("Exit", "Stop MusicCat RPC")

		go func() {
			reason := watch(ctx, updates, exit.ClickedCh, func(st host.Status) {
				systray.SetTooltip(host.Tooltip(st))
				discord.SetTitle(discordLine(st))
				track.SetTitle(trackLine(st))
			})
			log.Debug("tray closing", "reason", reason)
			if reason == reasonExit {
				stop()
			}
			systray.Quit()
		}()
	}

	systray.Run(onReady, unsubscribe)
}

type reason string

const (
	reasonCancelled reason = "cancelled"
	reasonExit      reason = "exit"
	reasonClosed    reason = "updates closed"
)

// watch applies status updates until ctx ends, Exit is clicked or the
// updates channel closes.
func watch(ctx context.Context, updates <-chan host.Status, exit <-chan struct{}, apply func(host.Status)) reason {
	for {
		select {
		case <-ctx.Done():
			return reasonCancelled
		case <-exit:
			return reasonExit
		case st, ok := <-updates:
			if !ok {
				return reasonClosed
			}
			apply(st)
		}
	}
}

func discordLine(st host.Status) string {
	return host.Clip("Discord: "+st.Discord, host.TooltipLimit)
}

func trackLine(st host.Status) string {
	return host.Clip("Track: "+st.Track, host.TooltipLimit)
}
