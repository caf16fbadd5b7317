package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/daemon"
	"github.com/musiccat/musiccat-rpc/internal/logging"
	"github.com/musiccat/musiccat-rpc/internal/tui"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Run the daemon with a terminal dashboard",
	Long: `Run the presence daemon and show a live dashboard of the current
track, the Discord and feed connections, and the tracks seen this session.

Logs go to log.file when set and are discarded otherwise. Quitting the
dashboard stops the daemon.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  c            Copy the track link
  o            Open the track in a browser
  r            Refresh`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 1000, "Refresh interval in milliseconds")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	log := logging.New(io.Discard, cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.File != "" {
		l, closeLog, err := newLogger(false)
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()
		log = l
	}

	d, err := daemon.New(cfg, daemon.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx)
		cancel()
	}()

	uiErr := tui.Run(ctx, d.Cache(), d.Reporter(),
		tui.WithRefreshRate(time.Duration(tuiRefresh)*time.Millisecond))
	cancel()
	if err := <-done; err != nil {
		return err
	}
	return uiErr
}
