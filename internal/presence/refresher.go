package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

// DefaultInterval is the default time between scheduled publishes.
const DefaultInterval = 30 * time.Second

// Ticker is the subset of time.Ticker used by Refresher.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// Refresher re-publishes the cached snapshot on a fixed interval so the
// elapsed time on the display stays accurate between feed events.
type Refresher struct {
	publisher *Publisher
	cache     *status.Cache
	interval  time.Duration
	now       func() time.Time
	newTicker func(time.Duration) Ticker
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshLogger sets the logger.
func WithRefreshLogger(log *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRefreshMetrics sets the metrics sink.
func WithRefreshMetrics(m *metrics.Metrics) RefresherOption {
	return func(r *Refresher) {
		r.metrics = m
	}
}

// WithClock sets the clock passed to Publish.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTicker overrides ticker construction.
func WithTicker(fn func(time.Duration) Ticker) RefresherOption {
	return func(r *Refresher) {
		if fn != nil {
			r.newTicker = fn
		}
	}
}

// NewRefresher creates a refresher. A non-positive interval uses DefaultInterval.
func NewRefresher(p *Publisher, cache *status.Cache, interval time.Duration, opts ...RefresherOption) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Refresher{
		publisher: p,
		cache:     cache,
		interval:  interval,
		now:       time.Now,
		newTicker: func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} },
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run waits for the first snapshot and then publishes on every tick until
// ctx is cancelled. Publish failures are logged and do not stop the loop.
func (r *Refresher) Run(ctx context.Context) error {
	select {
	case <-r.cache.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Debug("refresh loop started", "interval", r.interval)

	ticker := r.newTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			outcome, err := r.publisher.Publish(ctx, r.now())
			if err == nil && outcome == Published {
				r.metrics.IncPublishes(metrics.TriggerRefresh)
			}
		}
	}
}
