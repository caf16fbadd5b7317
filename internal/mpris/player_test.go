package mpris

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

func activityAt(start time.Time, length time.Duration) core.Activity {
	end := start.Add(length)
	return core.Activity{
		Details:    "Song A",
		DetailsURL: "https://example.com/a",
		State:      "Artist A",
		Start:      &start,
		End:        &end,
		LargeImage: "https://example.com/a.jpg",
	}
}

func TestMetadata(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	md := Metadata(activityAt(start, 200*time.Second))

	assert.Equal(t, "Song A", md["xesam:title"])
	assert.Equal(t, []string{"Artist A"}, md["xesam:artist"])
	assert.Equal(t, "https://example.com/a", md["xesam:url"])
	assert.Equal(t, "https://example.com/a.jpg", md["mpris:artUrl"])
	assert.Equal(t, int64(200_000_000), md["mpris:length"])

	id, ok := md["mpris:trackid"].(dbus.ObjectPath)
	assert.True(t, ok)
	assert.True(t, id.IsValid(), "track id %q must be a valid object path", id)
}

func TestMetadataStream(t *testing.T) {
	a := core.Activity{Details: "Radio", DetailsURL: "https://example.com/live", State: "DJ"}
	md := Metadata(a)

	_, ok := md["mpris:length"]
	assert.False(t, ok, "streams have no length")
	_, ok = md["mpris:artUrl"]
	assert.False(t, ok)
}

func TestMetadataEmpty(t *testing.T) {
	md := Metadata(core.Activity{})
	assert.Len(t, md, 1)
	assert.Equal(t, dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack"), md["mpris:trackid"])
}

func TestTrackIDStable(t *testing.T) {
	a := TrackID("https://example.com/a")
	assert.Equal(t, a, TrackID("https://example.com/a"))
	assert.NotEqual(t, a, TrackID("https://example.com/b"))
}

func TestPositionAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := activityAt(start, 200*time.Second)

	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"before start", start.Add(-time.Second), 0},
		{"midway", start.Add(15 * time.Second), 15_000_000},
		{"past end", start.Add(300 * time.Second), 200_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositionAt(a, tt.now); got != tt.want {
				t.Errorf("PositionAt() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := PositionAt(core.Activity{}, start); got != 0 {
		t.Errorf("PositionAt(no timestamps) = %d, want 0", got)
	}
}
