package core

import "time"

// Status is one message from the status feed.
type Status struct {
	IsPaused  bool  `json:"is_paused"`
	IsPlaying bool  `json:"is_playing"`
	Track     Track `json:"track"`
}

// Active returns true if something is audibly playing.
func (s Status) Active() bool {
	return s.IsPlaying && !s.IsPaused
}

// Snapshot is a Status together with the local time it was accepted.
// Snapshots are passed by value and never modified after creation.
type Snapshot struct {
	Status
	ArrivedAt time.Time `json:"arrived_at"`
}

// Elapsed returns the wall-clock time since the snapshot arrived.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.ArrivedAt)
}

// PositionAt extrapolates the playback position at now.
func (s Snapshot) PositionAt(now time.Time) time.Duration {
	return s.Track.Progress() + s.Elapsed(now)
}

// ProgressPercent returns extrapolated progress as a percentage (0-100).
func (s Snapshot) ProgressPercent(now time.Time) float64 {
	if s.Track.IsStream || s.Track.Length <= 0 {
		return 0
	}
	pos := s.Track.Progress()
	if s.Active() {
		pos = s.PositionAt(now)
	}
	p := float64(pos) / float64(s.Track.Duration()) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
