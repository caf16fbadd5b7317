package core

import (
	"context"
	"time"
)

// Display defines the interface for an external presence display.
type Display interface {
	// SetActivity replaces the displayed activity.
	SetActivity(ctx context.Context, a Activity) error
	// ClearActivity removes any displayed activity.
	ClearActivity(ctx context.Context) error
	// Close releases the display's connection.
	Close() error
}

// Activity is a presentation-ready "listening to" record.
type Activity struct {
	Details    string
	DetailsURL string
	State      string

	// Start and End are nil for live streams.
	Start *time.Time
	End   *time.Time

	LargeImage string
	LargeText  string
	SmallImage string
	SmallText  string
}

// HasTimestamps returns true if the activity carries a start/end window.
func (a Activity) HasTimestamps() bool {
	return a.Start != nil && a.End != nil
}
