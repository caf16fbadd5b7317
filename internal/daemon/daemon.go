// Package daemon assembles the feed, cache, presence and host components and
// runs them as supervised background tasks.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/musiccat/musiccat-rpc/internal/config"
	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/discord"
	"github.com/musiccat/musiccat-rpc/internal/feed"
	"github.com/musiccat/musiccat-rpc/internal/host"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/mpris"
	"github.com/musiccat/musiccat-rpc/internal/presence"
	"github.com/musiccat/musiccat-rpc/internal/server"
	"github.com/musiccat/musiccat-rpc/internal/status"
	"github.com/musiccat/musiccat-rpc/internal/supervise"
)

// Task names, used in logs, metrics and host status.
const (
	TaskFeed    = "feed"
	TaskIngest  = "ingest"
	TaskRefresh = "refresh"
	TaskServer  = "server"
)

// Daemon owns every long-lived component. It is built once and passed
// explicitly to whatever needs it.
type Daemon struct {
	cfg *config.Config
	log *slog.Logger

	cache     *status.Cache
	reporter  *host.Reporter
	metrics   *metrics.Metrics
	display   core.Display
	discord   *discord.Client
	publisher *presence.Publisher
	ingestor  *feed.Ingestor
	refresher *presence.Refresher
	feed      *feed.Client
	server    *server.Server
	sup       *supervise.Supervisor

	presence bool
	displays []core.Display
	hooks    []feed.ChangeFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Daemon) {
		if log != nil {
			d.log = log
		}
	}
}

// WithReporter shares an existing host reporter.
func WithReporter(r *host.Reporter) Option {
	return func(d *Daemon) {
		d.reporter = r
	}
}

// WithDisplays replaces the displays built from the config.
func WithDisplays(displays ...core.Display) Option {
	return func(d *Daemon) {
		d.displays = displays
	}
}

// WithoutPresence runs the feed and cache only; nothing is published.
func WithoutPresence() Option {
	return func(d *Daemon) {
		d.presence = false
	}
}

// WithChangeHook is called for every status change, after publishing.
func WithChangeHook(fn feed.ChangeFunc) Option {
	return func(d *Daemon) {
		d.hooks = append(d.hooks, fn)
	}
}

// New builds a daemon from cfg. No connections are opened until Run.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		log:      slog.Default(),
		presence: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.reporter == nil {
		d.reporter = host.NewReporter(host.WithLogger(d.log))
	}

	d.cache = status.NewCache()
	d.metrics = metrics.New()
	d.sup = supervise.New(
		supervise.Policy{
			MaxRestarts: cfg.Supervisor.MaxRestarts,
			Delay:       cfg.Supervisor.RestartDelayDuration(),
			StableAfter: time.Minute,
		},
		supervise.WithLogger(d.log),
		supervise.WithMetrics(d.metrics),
		supervise.WithReporter(d.reporter.SetTask),
	)

	ingestOpts := []feed.IngestorOption{
		feed.WithIngestorLogger(d.log),
		feed.WithIngestorMetrics(d.metrics),
		feed.WithChangeHook(func(_ *core.Status, curr core.Snapshot) {
			d.reporter.SetTrack(curr.Status)
		}),
	}

	if d.presence {
		d.display = d.buildDisplay()
		d.publisher = presence.NewPublisher(d.cache, d.display,
			presence.WithLogger(d.log),
			presence.WithMetrics(d.metrics),
			presence.WithObserver(d.observePublish),
		)
		d.refresher = presence.NewRefresher(d.publisher, d.cache, cfg.Refresh.IntervalDuration(),
			presence.WithRefreshLogger(d.log),
			presence.WithRefreshMetrics(d.metrics),
		)
		ingestOpts = append(ingestOpts, feed.WithPublisher(d.publisher))
	} else {
		d.reporter.SetDisplay("Disabled")
	}

	for _, hook := range d.hooks {
		ingestOpts = append(ingestOpts, feed.WithChangeHook(hook))
	}
	d.ingestor = feed.NewIngestor(d.cache, ingestOpts...)

	d.feed = feed.NewClient(cfg.Feed.URL,
		feed.WithReconnectTimeout(cfg.Feed.ReconnectTimeoutDuration()),
		feed.WithClientLogger(d.log),
		feed.WithClientMetrics(d.metrics),
		feed.WithStateFunc(d.observeFeed),
	)

	if cfg.Metrics.Listen != "" {
		d.server = server.New(d.cache, d.reporter, d.metrics, server.WithLogger(d.log))
	}

	return d, nil
}

// buildDisplay returns the configured displays as one.
func (d *Daemon) buildDisplay() core.Display {
	if d.displays != nil {
		return presence.Multi(d.displays)
	}

	var displays presence.Multi
	if d.cfg.Discord.Enabled {
		d.discord = discord.NewClient(d.cfg.Discord.AppID,
			discord.WithLogger(d.log),
			discord.WithStateFunc(func(connected bool) {
				if connected {
					d.reporter.SetDisplay("Connected")
				} else {
					d.reporter.SetDisplay("Disconnected")
				}
			}),
		)
		displays = append(displays, d.discord)
	} else {
		d.reporter.SetDisplay("Disabled")
	}

	if d.cfg.MPRIS.Enabled {
		p, err := mpris.Register(d.log)
		if err != nil {
			d.log.Warn("mpris unavailable", "error", err)
		} else {
			displays = append(displays, p)
		}
	}
	return displays
}

func (d *Daemon) observePublish(o presence.Outcome, err error) {
	if err != nil {
		d.reporter.SetDisplay(fmt.Sprintf("Error: %v", err))
		return
	}
	if o == presence.Skipped {
		return
	}
	if d.discord != nil && d.discord.Connected() {
		d.reporter.SetDisplay("Connected")
	}
}

func (d *Daemon) observeFeed(state feed.State, err error) {
	switch {
	case state == feed.StateDisconnected && err != nil:
		d.reporter.SetFeed(fmt.Sprintf("Disconnected (retrying in %s)", d.cfg.Feed.ReconnectTimeoutDuration()))
	default:
		d.reporter.SetFeed(state.String())
	}
}

// Cache returns the status cache.
func (d *Daemon) Cache() *status.Cache {
	return d.cache
}

// Reporter returns the host status reporter.
func (d *Daemon) Reporter() *host.Reporter {
	return d.reporter
}

// Metrics returns the metrics registry.
func (d *Daemon) Metrics() *metrics.Metrics {
	return d.metrics
}

// Run starts every task and blocks until ctx is cancelled or a task halts.
// Displays are closed before returning.
func (d *Daemon) Run(ctx context.Context) error {
	if d.display != nil {
		defer func() {
			if err := d.display.Close(); err != nil {
				d.log.Warn("closing presence display", "error", err)
			}
		}()
	}

	frames := make(chan []byte)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		return d.sup.Run(ctx, TaskFeed, func(ctx context.Context) error {
			return d.feed.Run(ctx, frames)
		})
	})
	p.Go(func(ctx context.Context) error {
		return d.sup.Run(ctx, TaskIngest, func(ctx context.Context) error {
			return d.ingestor.Run(ctx, frames)
		})
	})
	if d.refresher != nil {
		p.Go(func(ctx context.Context) error {
			return d.sup.Run(ctx, TaskRefresh, d.refresher.Run)
		})
	}
	if d.server != nil {
		p.Go(func(ctx context.Context) error {
			return d.sup.Run(ctx, TaskServer, func(ctx context.Context) error {
				return d.server.ListenAndServe(ctx, d.cfg.Metrics.Listen)
			})
		})
	}

	d.log.Info("daemon started",
		"feed", d.cfg.Feed.URL,
		"presence", d.presence,
		"refresh", d.cfg.Refresh.IntervalDuration(),
	)

	err := p.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		d.log.Error("daemon stopped", "error", err)
		return err
	}
	d.log.Info("daemon stopped")
	return nil
}
