package cli

import (
	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/daemon"
	"github.com/musiccat/musiccat-rpc/internal/tray"
)

var runTray bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the presence daemon",
	Long: `Connect to the MusicCat status feed and keep Discord Rich Presence in
sync with the current track until interrupted.

With --tray, a system tray icon shows the Discord and track status and its
Exit entry stops the daemon.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runTray, "tray", false, "show a system tray icon")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	d, err := daemon.New(cfg, daemon.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if !runTray {
		return d.Run(ctx)
	}

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx)
		// a halted daemon takes the tray down with it
		cancel()
	}()

	tray.Run(ctx, d.Reporter(), cancel, log)
	cancel()
	return <-done
}

