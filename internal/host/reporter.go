// Package host keeps the human-readable status shown by the tray, the TUI
// and the HTTP status endpoint.
package host

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// TooltipLimit is the longest tooltip the Windows tray accepts.
const TooltipLimit = 63

// Status is a snapshot of everything the host displays.
type Status struct {
	Discord   string            `json:"discord"`
	Feed      string            `json:"feed"`
	Track     string            `json:"track"`
	Tasks     map[string]string `json:"tasks,omitempty"`
	UpdatedAt time.Time         `json:"updated_at" hash:"ignore"`
}

// Reporter collects status strings from the engine and fans changes out to
// subscribers. Identical consecutive statuses are not re-sent.
type Reporter struct {
	log *slog.Logger
	now func() time.Time

	mu   sync.Mutex
	st   Status
	hash uint64
	subs map[int]chan Status
	next int
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reporter) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock sets the time source for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// NewReporter creates a reporter with the startup status.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		log:  slog.Default(),
		now:  time.Now,
		subs: make(map[int]chan Status),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.st = Status{
		Discord:   "Starting...",
		Feed:      "Starting...",
		Track:     NotPlaying,
		UpdatedAt: r.now(),
	}
	r.hash = r.hashOf(r.st)
	return r
}

// SetDisplay records the presence display status.
func (r *Reporter) SetDisplay(s string) {
	r.update(func(st *Status) { st.Discord = s })
}

// SetFeed records the feed connection status.
func (r *Reporter) SetFeed(s string) {
	r.update(func(st *Status) { st.Feed = s })
}

// SetTrack records the current track line.
func (r *Reporter) SetTrack(st core.Status) {
	info := TrackInfo(st)
	r.update(func(s *Status) { s.Track = info })
}

// SetTask records a background task status. An empty status removes it.
func (r *Reporter) SetTask(task, status string) {
	r.update(func(st *Status) {
		if status == "" {
			delete(st.Tasks, task)
			return
		}
		if st.Tasks == nil {
			st.Tasks = make(map[string]string)
		}
		st.Tasks[task] = status
	})
}

// Status returns a copy of the current status.
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.clone()
}

// Subscribe returns a channel that receives the latest status after every
// change. Slow subscribers only see the newest value. The returned func
// unsubscribes and closes the channel.
func (r *Reporter) Subscribe() (<-chan Status, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.next
	r.next++
	ch := make(chan Status, 1)
	ch <- r.st.clone()
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

func (r *Reporter) update(fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.st.clone()
	fn(&next)

	h := r.hashOf(next)
	if h == r.hash {
		return
	}
	next.UpdatedAt = r.now()
	r.st = next
	r.hash = h

	r.log.Debug("host status", "discord", next.Discord, "feed", next.Feed, "track", next.Track)
	for _, ch := range r.subs {
		// drop the stale value so the newest one always fits
		select {
		case <-ch:
		default:
		}
		ch <- next.clone()
	}
}

func (r *Reporter) hashOf(st Status) uint64 {
	h, err := hashstructure.Hash(st, hashstructure.FormatV2, nil)
	if err != nil {
		r.log.Debug("hash host status", "error", err)
		return 0
	}
	return h
}

func (s Status) clone() Status {
	s.Tasks = maps.Clone(s.Tasks)
	return s
}

// NotPlaying is the track line shown when nothing plays.
const NotPlaying = "Not playing"

// TrackInfo renders the one-line track description.
func TrackInfo(st core.Status) string {
	if !st.IsPlaying {
		return NotPlaying
	}
	icon := "▶"
	if st.IsPaused {
		icon = "⏸"
	}
	return fmt.Sprintf("%s %s - %s", icon, st.Track.Title, st.Track.Author)
}

// Tooltip renders the tray tooltip, clipped to TooltipLimit characters.
func Tooltip(s Status) string {
	return Clip(fmt.Sprintf("Discord: %s\nTrack: %s", s.Discord, s.Track), TooltipLimit)
}

// Clip shortens s to at most limit runes, marking the cut with "...".
func Clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 3 {
		return string([]rune(s)[:limit])
	}
	return string([]rune(s)[:limit-3]) + "..."
}
