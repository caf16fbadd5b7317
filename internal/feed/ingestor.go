package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/presence"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

// ErrEmptyFrame is returned by Parse for blank frames.
var ErrEmptyFrame = errors.New("empty frame")

// Publisher pushes the cached status to the presence display.
type Publisher interface {
	Publish(ctx context.Context, now time.Time) (presence.Outcome, error)
}

// ChangeFunc is called after a frame that changed the visible state. prev
// is nil for the first status.
type ChangeFunc func(prev *core.Status, curr core.Snapshot)

// Ingestor turns feed frames into cache updates and triggers an immediate
// publish when the visible state changed. It is not safe for concurrent
// use; frames are handled one at a time.
type Ingestor struct {
	cache     *status.Cache
	publisher Publisher
	now       func() time.Time
	log       *slog.Logger
	metrics   *metrics.Metrics
	hooks     []ChangeFunc

	last *core.Status
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithPublisher sets the publisher called on change. Without one the
// ingestor only updates the cache and runs the change hooks.
func WithPublisher(p Publisher) IngestorOption {
	return func(in *Ingestor) {
		in.publisher = p
	}
}

// WithChangeHook adds a hook run on every detected change.
func WithChangeHook(fn ChangeFunc) IngestorOption {
	return func(in *Ingestor) {
		if fn != nil {
			in.hooks = append(in.hooks, fn)
		}
	}
}

// WithIngestorClock sets the clock passed to Publish.
func WithIngestorClock(now func() time.Time) IngestorOption {
	return func(in *Ingestor) {
		if now != nil {
			in.now = now
		}
	}
}

// WithIngestorLogger sets the logger.
func WithIngestorLogger(log *slog.Logger) IngestorOption {
	return func(in *Ingestor) {
		if log != nil {
			in.log = log
		}
	}
}

// WithIngestorMetrics sets the metrics sink.
func WithIngestorMetrics(m *metrics.Metrics) IngestorOption {
	return func(in *Ingestor) {
		in.metrics = m
	}
}

// NewIngestor creates an ingestor writing to cache.
func NewIngestor(cache *status.Cache, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		cache: cache,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Parse decodes one feed frame.
func Parse(frame []byte) (core.Status, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return core.Status{}, ErrEmptyFrame
	}

	var st *core.Status
	if err := json.Unmarshal(frame, &st); err != nil {
		return core.Status{}, err
	}
	if st == nil {
		return core.Status{}, ErrEmptyFrame
	}
	return *st, nil
}

// Run handles frames until the channel is closed or ctx is cancelled.
func (in *Ingestor) Run(ctx context.Context, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			in.Handle(ctx, frame)
		}
	}
}

// Handle processes a single frame and reports whether it was a change.
// Frames that fail to parse are logged and dropped.
func (in *Ingestor) Handle(ctx context.Context, frame []byte) bool {
	st, err := Parse(frame)
	if err != nil {
		if errors.Is(err, ErrEmptyFrame) {
			in.log.Debug("ignoring empty feed frame")
			return false
		}
		in.metrics.IncFeedParseErrors()
		in.log.Warn("dropping malformed feed frame", "error", err, "size", len(frame))
		return false
	}

	snap := in.cache.Update(st)

	if !status.HasChanged(in.last, st) {
		return false
	}

	prev := in.last
	in.log.Info("status changed",
		"playing", st.IsPlaying,
		"paused", st.IsPaused,
		"title", st.Track.Title,
		"uri", st.Track.URI,
	)

	if in.publisher != nil {
		outcome, err := in.publisher.Publish(ctx, in.now())
		if err == nil && outcome == presence.Published {
			in.metrics.IncPublishes(metrics.TriggerChange)
		}
	}

	for _, hook := range in.hooks {
		hook(prev, snap)
	}

	in.last = &st
	return true
}
