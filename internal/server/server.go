// Package server exposes metrics, health and the current status over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/host"
	"github.com/musiccat/musiccat-rpc/internal/logging"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
	"github.com/musiccat/musiccat-rpc/internal/status"
)

const shutdownTimeout = 5 * time.Second

// TrackView is a track with its position extrapolated to the response time.
type TrackView struct {
	core.Track
	PositionNow int64   `json:"positionNow"`
	Percent     float64 `json:"progress"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Host      host.Status `json:"host"`
	HasData   bool        `json:"has_data"`
	IsPlaying bool        `json:"is_playing"`
	IsPaused  bool        `json:"is_paused"`
	Track     *TrackView  `json:"track,omitempty"`
	ArrivedAt *time.Time  `json:"arrived_at,omitempty"`
}

// Server serves /metrics, /healthz and /status.
type Server struct {
	cache    *status.Cache
	reporter *host.Reporter
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the time source used to extrapolate positions.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a server reading from cache and reporter.
func New(cache *status.Cache, reporter *host.Reporter, m *metrics.Metrics, opts ...Option) *Server {
	s := &Server{
		cache:    cache,
		reporter: reporter,
		metrics:  m,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(logging.RequestLogger(s.log))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("status server shutdown", "error", err)
		return err
	}
	s.log.Info("status server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildStatus(s.cache, s.reporter, s.now()))
}

// BuildStatus assembles the status response as of now.
func BuildStatus(cache *status.Cache, reporter *host.Reporter, now time.Time) StatusResponse {
	var resp StatusResponse
	if reporter != nil {
		resp.Host = reporter.Status()
	}

	snap, ok := cache.Get()
	if !ok {
		return resp
	}

	pos := snap.Track.Progress()
	if snap.Active() {
		pos = snap.PositionAt(now)
	}

	arrived := snap.ArrivedAt
	resp.HasData = true
	resp.IsPlaying = snap.IsPlaying
	resp.IsPaused = snap.IsPaused
	resp.ArrivedAt = &arrived
	resp.Track = &TrackView{
		Track:       snap.Track,
		PositionNow: pos.Milliseconds(),
		Percent:     snap.ProgressPercent(now),
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
