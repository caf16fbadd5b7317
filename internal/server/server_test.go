package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/host"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(cache *status.Cache, reporter *host.Reporter, m *metrics.Metrics) *Server {
	return New(cache, reporter, m, WithClock(func() time.Time { return t0.Add(5 * time.Second) }))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(status.NewCache(), host.NewReporter(), nil)
	rec := get(t, s.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.IncFeedFrames()

	s := newTestServer(status.NewCache(), host.NewReporter(), m)
	rec := get(t, s.Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "musiccat_feed_frames_total 1")
}

func TestMetricsRouteDisabled(t *testing.T) {
	s := newTestServer(status.NewCache(), host.NewReporter(), nil)
	rec := get(t, s.Router(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusNoData(t *testing.T) {
	s := newTestServer(status.NewCache(), host.NewReporter(), nil)
	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.HasData)
	assert.Nil(t, resp.Track)
	assert.Equal(t, host.NotPlaying, resp.Host.Track)
}

func TestStatusExtrapolates(t *testing.T) {
	cache := status.NewCache(status.WithClock(func() time.Time { return t0 }))
	cache.Update(core.Status{
		IsPlaying: true,
		Track: core.Track{
			Title:    "Song A",
			URI:      "https://example.com/a",
			Length:   200000,
			Position: 10000,
		},
	})

	s := newTestServer(cache, host.NewReporter(), nil)
	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Track)
	assert.True(t, resp.HasData)
	assert.Equal(t, int64(15000), resp.Track.PositionNow)
	assert.Equal(t, int64(10000), resp.Track.Position)
	assert.InDelta(t, 7.5, resp.Track.Percent, 0.001)
}

func TestStatusPausedDoesNotAdvance(t *testing.T) {
	cache := status.NewCache(status.WithClock(func() time.Time { return t0 }))
	cache.Update(core.Status{
		IsPlaying: true,
		IsPaused:  true,
		Track:     core.Track{Length: 200000, Position: 10000},
	})

	resp := BuildStatus(cache, nil, t0.Add(time.Minute))
	require.NotNil(t, resp.Track)
	assert.Equal(t, int64(10000), resp.Track.PositionNow)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(status.NewCache(), host.NewReporter(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.HasPrefix(string(body), "ok"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
