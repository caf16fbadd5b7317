package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Publish triggers, used as the "trigger" label.
const (
	TriggerChange  = "change"
	TriggerRefresh = "refresh"
)

// Metrics holds Prometheus counters and gauges for the bridge.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	feedFrames      prometheus.Counter
	feedParseErrors prometheus.Counter
	feedConnects    prometheus.Counter
	feedConnected   prometheus.Gauge
	presencePublish *prometheus.CounterVec
	presenceClears  prometheus.Counter
	presenceErrors  prometheus.Counter
	taskRestarts    *prometheus.CounterVec
}

// New creates and registers the bridge metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		feedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "musiccat_feed_frames_total",
			Help: "Total number of frames received from the status feed",
		}),
		feedParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "musiccat_feed_parse_errors_total",
			Help: "Total number of feed frames dropped because they could not be parsed",
		}),
		feedConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "musiccat_feed_connects_total",
			Help: "Total number of successful feed connections",
		}),
		feedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "musiccat_feed_connected",
			Help: "1 while the status feed is connected, 0 otherwise",
		}),
		presencePublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "musiccat_presence_publishes_total",
			Help: "Total number of presence publishes by trigger",
		}, []string{"trigger"}),
		presenceClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "musiccat_presence_clears_total",
			Help: "Total number of times the presence display was cleared",
		}),
		presenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "musiccat_presence_errors_total",
			Help: "Total number of failed presence display calls",
		}),
		taskRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "musiccat_task_restarts_total",
			Help: "Total number of background task restarts after a failure",
		}, []string{"task"}),
	}

	registry.MustRegister(
		m.feedFrames,
		m.feedParseErrors,
		m.feedConnects,
		m.feedConnected,
		m.presencePublish,
		m.presenceClears,
		m.presenceErrors,
		m.taskRestarts,
	)

	return m
}

// IncFeedFrames increments the received frame counter.
func (m *Metrics) IncFeedFrames() {
	if m == nil {
		return
	}
	m.feedFrames.Inc()
}

// IncFeedParseErrors increments the dropped frame counter.
func (m *Metrics) IncFeedParseErrors() {
	if m == nil {
		return
	}
	m.feedParseErrors.Inc()
}

// SetFeedConnected records the feed connection state.
func (m *Metrics) SetFeedConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.feedConnects.Inc()
		m.feedConnected.Set(1)
		return
	}
	m.feedConnected.Set(0)
}

// IncPublishes increments the publish counter for trigger.
func (m *Metrics) IncPublishes(trigger string) {
	if m == nil {
		return
	}
	m.presencePublish.WithLabelValues(trigger).Inc()
}

// IncClears increments the presence clear counter.
func (m *Metrics) IncClears() {
	if m == nil {
		return
	}
	m.presenceClears.Inc()
}

// IncPresenceErrors increments the failed presence call counter.
func (m *Metrics) IncPresenceErrors() {
	if m == nil {
		return
	}
	m.presenceErrors.Inc()
}

// IncTaskRestarts increments the restart counter for task.
func (m *Metrics) IncTaskRestarts(task string) {
	if m == nil {
		return
	}
	m.taskRestarts.WithLabelValues(task).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
