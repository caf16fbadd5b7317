package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/daemon"
	"github.com/musiccat/musiccat-rpc/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Watch the status feed and print playback changes as they happen.
Nothing is published to Discord.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Pause/Resume
  - Stop

Template fields for --format:
  {{.Type}} {{.Emoji}} {{.Time}} {{.Title}} {{.Author}} {{.Source}}
  {{.URI}} {{.Length}} {{.Live}}`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)
	watcher := tail.NewWatcher(64)

	d, err := daemon.New(listenerless(cfg),
		daemon.WithLogger(log),
		daemon.WithoutPresence(),
		daemon.WithChangeHook(watcher.Observe),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := d.Run(ctx)
		watcher.Close()
		done <- err
	}()

	out := cmd.OutOrStdout()
	for event := range watcher.Events() {
		_, _ = fmt.Fprintln(out, formatter.Format(event))
	}
	return <-done
}
