package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

// Outcome describes what a publish did.
type Outcome int

const (
	// Skipped means the cache had no data yet.
	Skipped Outcome = iota
	// Cleared means nothing was playing and the display was cleared.
	Cleared
	// Published means an activity was pushed to the display.
	Published
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Cleared:
		return "cleared"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// Observer is notified after every publish attempt.
type Observer func(o Outcome, err error)

// Publisher turns the cached snapshot into a presence update. It holds no
// mutable state of its own, so concurrent calls are safe.
type Publisher struct {
	cache    *status.Cache
	display  core.Display
	log      *slog.Logger
	metrics  *metrics.Metrics
	observer Observer
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithObserver sets a callback invoked after every publish attempt.
func WithObserver(fn Observer) PublisherOption {
	return func(p *Publisher) {
		p.observer = fn
	}
}

// NewPublisher creates a publisher reading from cache and writing to display.
func NewPublisher(cache *status.Cache, display core.Display, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		cache:   cache,
		display: display,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish pushes the presence for the latest snapshot as of now.
func (p *Publisher) Publish(ctx context.Context, now time.Time) (Outcome, error) {
	outcome, err := p.publish(ctx, now)
	if err != nil {
		p.metrics.IncPresenceErrors()
		p.log.Warn("presence update failed", "outcome", outcome.String(), "error", err)
	}
	if p.observer != nil {
		p.observer(outcome, err)
	}
	return outcome, err
}

func (p *Publisher) publish(ctx context.Context, now time.Time) (Outcome, error) {
	snap, ok := p.cache.Get()
	if !ok {
		return Skipped, nil
	}

	if !snap.Active() {
		p.metrics.IncClears()
		p.log.Debug("clearing presence", "playing", snap.IsPlaying, "paused", snap.IsPaused)
		return Cleared, p.display.ClearActivity(ctx)
	}

	a := BuildActivity(snap, now)
	p.log.Debug("setting presence",
		"title", a.Details,
		"uri", a.DetailsURL,
		"stream", snap.Track.IsStream,
		"position_ms", snap.PositionAt(now).Milliseconds(),
	)
	return Published, p.display.SetActivity(ctx, a)
}

// BuildActivity computes the presentation record for an active snapshot.
// The start time is extrapolated from the reported position plus the time
// since the snapshot arrived; live streams carry no timestamps.
func BuildActivity(snap core.Snapshot, now time.Time) core.Activity {
	track := snap.Track

	a := core.Activity{
		Details:    track.Title,
		DetailsURL: track.URI,
		State:      track.Author,
		LargeImage: track.ArtworkURL,
		SmallImage: track.SourceName,
		SmallText:  track.SourceName,
	}

	if !track.IsStream {
		start := now.UTC().Add(-snap.PositionAt(now))
		end := start.Add(track.Duration())
		a.Start = &start
		a.End = &end
	}

	return a
}
