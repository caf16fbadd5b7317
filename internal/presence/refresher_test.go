package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/presence/presencetest"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { close(m.stopped) }

func TestRefresherWaitsForFirstData(t *testing.T) {
	cache := status.NewCache()
	rec := &presencetest.Recorder{}
	ticker := newManualTicker()

	r := NewRefresher(NewPublisher(cache, rec), cache, time.Second,
		WithTicker(func(time.Duration) Ticker { return ticker }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// No ticker is created until the cache has data, so a tick cannot be
	// delivered yet.
	select {
	case ticker.ch <- t0:
		t.Fatal("refresher ticked before first data")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, rec.Calls())
}

func TestRefresherExtrapolatesWithoutNewFrames(t *testing.T) {
	cache := status.NewCache(status.WithClock(func() time.Time { return t0 }))
	cache.Update(core.Status{
		IsPlaying: true,
		Track:     core.Track{URI: "a", Title: "A", Position: 0, Length: 180000},
	})

	rec := &presencetest.Recorder{}
	ticker := newManualTicker()
	var interval time.Duration

	tickAt := t0.Add(30 * time.Second)
	r := NewRefresher(NewPublisher(cache, rec), cache, 0,
		WithClock(func() time.Time { return tickAt }),
		WithTicker(func(d time.Duration) Ticker {
			interval = d
			return ticker
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	ticker.ch <- tickAt
	// The unbuffered channel hands off the tick; a second send proves the
	// first publish completed.
	ticker.ch <- tickAt
	cancel()
	<-done

	assert.Equal(t, DefaultInterval, interval)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	a := calls[0].Activity
	require.True(t, a.HasTimestamps())

	// Position 0 plus 30s elapsed: the track started 30s before the tick.
	assert.True(t, a.Start.Equal(tickAt.Add(-30000*time.Millisecond)), "start = %v", a.Start)
	assert.True(t, a.End.Equal(a.Start.Add(180000*time.Millisecond)), "end = %v", a.End)

	select {
	case <-ticker.stopped:
	default:
		t.Error("ticker was not stopped")
	}
}

func TestRefresherKeepsRunningAfterPublishError(t *testing.T) {
	cache := status.NewCache()
	cache.Update(core.Status{IsPlaying: true, Track: core.Track{URI: "a", Length: 1000}})

	rec := &presencetest.Recorder{Err: assert.AnError}
	ticker := newManualTicker()
	r := NewRefresher(NewPublisher(cache, rec), cache, time.Second,
		WithTicker(func(time.Duration) Ticker { return ticker }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	for i := 0; i < 3; i++ {
		ticker.ch <- t0
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.GreaterOrEqual(t, len(rec.Calls()), 2)
}
