package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/config"
	"github.com/musiccat/musiccat-rpc/internal/daemon"
	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
	"github.com/musiccat/musiccat-rpc/internal/server"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is playing right now",
	Long: `Connect to the status feed, wait for the first status and print it.
Nothing is published to Discord.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().DurationVarP(&statusTimeout, "timeout", "t", 10*time.Second, "how long to wait for the feed")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	d, err := daemon.New(listenerless(cfg), daemon.WithLogger(log), daemon.WithoutPresence())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, statusTimeout)
	defer waitCancel()
	waitErr := d.Cache().WaitForFirstData(waitCtx)

	now := time.Now()
	resp := server.BuildStatus(d.Cache(), d.Reporter(), now)

	cancel()
	if err := <-done; err != nil {
		return err
	}
	if waitErr != nil {
		return fmt.Errorf("%w within %s (feed: %s)", apperrors.ErrNoData, statusTimeout, resp.Host.Feed)
	}

	if JSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	writeStatus(os.Stdout, resp, now)
	return nil
}

// listenerless returns a copy of c that does not start the metrics server,
// so one-shot commands never collide with a running daemon.
func listenerless(c *config.Config) *config.Config {
	cp := *c
	cp.Metrics.Listen = ""
	return &cp
}

func writeStatus(w io.Writer, resp server.StatusResponse, now time.Time) {
	t := NewTableWriter(w)

	if resp.Track == nil || !resp.IsPlaying {
		t.Row("Status", StatusIcon(false)+" Not playing")
	} else {
		tr := resp.Track
		state := "Playing"
		if resp.IsPaused {
			state = "Paused"
		}
		t.Row("Status", StatusIcon(!resp.IsPaused)+" "+state)
		t.Row("Title", tr.Title)
		t.Row("Artist", tr.Author)
		if tr.SourceName != "" {
			t.Row("Source", tr.SourceName)
		}
		if tr.IsStream || tr.Length <= 0 {
			t.Row("Position", "live")
		} else {
			pos := min(tr.PositionNow, tr.Length)
			t.Row("Position", fmt.Sprintf("%s / %s %s",
				FormatDuration(int(pos/1000)),
				FormatDuration(int(tr.Length/1000)),
				FormatProgress(int(pos), int(tr.Length), 20)))
		}
		if tr.URI != "" {
			t.Row("Link", tr.URI)
		}
	}

	if resp.ArrivedAt != nil {
		t.Row("Received", humanize.RelTime(*resp.ArrivedAt, now, "ago", "from now"))
	}
	t.Row("Feed", resp.Host.Feed)
	t.Flush()
}
