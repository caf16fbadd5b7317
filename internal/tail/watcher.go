package tail

import (
	"sync"
	"time"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventStop
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.Status
	Current   *core.Status
}

// Watcher turns status changes into playback events. Wire Observe to the
// ingestor's change hook.
type Watcher struct {
	events chan Event

	mu     sync.Mutex
	prev   *core.Snapshot
	closed bool
}

// NewWatcher creates a watcher buffering up to size events.
func NewWatcher(size int) *Watcher {
	if size <= 0 {
		size = 16
	}
	return &Watcher{
		events: make(chan Event, size),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Observe records a status change and emits the derived events. It matches
// feed.ChangeFunc; the watcher tracks its own previous snapshot.
func (w *Watcher) Observe(_ *core.Status, curr core.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	for _, e := range diffStates(w.prev, curr) {
		select {
		case w.events <- e:
		default:
			// Drop event if channel is full
		}
	}
	w.prev = &curr
}

// Close stops the watcher and closes the events channel.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
}

// diffStates compares two snapshots and returns detected events.
func diffStates(prev *core.Snapshot, curr core.Snapshot) []Event {
	now := curr.ArrivedAt
	current := curr.Status
	var events []Event

	// First change - no previous state
	if prev == nil {
		if current.IsPlaying {
			events = append(events, Event{
				Type:      EventTrackChange,
				Timestamp: now,
				Current:   &current,
			})
		}
		return events
	}

	previous := prev.Status

	// Track change detection
	if previous.Track.URI != current.Track.URI {
		if previous.IsPlaying && previous.Track.URI != "" {
			eventType := EventTrackSkip
			if wasCompleted(*prev, now) {
				eventType = EventTrackComplete
			}
			events = append(events, Event{
				Type:      eventType,
				Timestamp: now,
				Previous:  &previous,
				Current:   &current,
			})
		}

		eventType := EventTrackChange
		if !current.IsPlaying {
			eventType = EventStop
		}
		if current.IsPlaying || previous.IsPlaying {
			events = append(events, Event{
				Type:      eventType,
				Timestamp: now,
				Previous:  &previous,
				Current:   &current,
			})
		}
		return events
	}

	// Same track: stop, pause and resume
	switch {
	case previous.IsPlaying && !current.IsPlaying:
		events = append(events, Event{Type: EventStop, Timestamp: now, Previous: &previous, Current: &current})
	case previous.Active() && current.IsPaused:
		events = append(events, Event{Type: EventPause, Timestamp: now, Previous: &previous, Current: &current})
	case !previous.Active() && current.Active():
		events = append(events, Event{Type: EventResume, Timestamp: now, Previous: &previous, Current: &current})
	}

	return events
}

// wasCompleted returns true if the previous track likely finished naturally.
func wasCompleted(prev core.Snapshot, now time.Time) bool {
	if prev.Track.IsStream || prev.Track.Length <= 0 {
		return false
	}
	pos := prev.Track.Progress()
	if prev.Active() {
		pos = prev.PositionAt(now)
	}
	// Consider completed if progress is >= 95% of duration
	threshold := float64(prev.Track.Duration()) * 0.95
	return float64(pos) >= threshold
}
