// Package metrics exposes Prometheus metrics for the voice gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SessionsActive  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	AudioBytesTotal *prometheus.CounterVec
	FramesDropped   prometheus.Counter

	TokenMintsTotal *prometheus.CounterVec
	RateLimitHits   prometheus.Counter

	ToolCallsTotal *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "agent_api"
	}

	registry := prometheus.NewRegistry()

	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bridge_sessions_active",
		Help:      "Number of active call bridge sessions",
	})

	sessionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_sessions_total",
		Help:      "Total number of call bridge sessions",
	}, []string{"status"})

	sessionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bridge_session_duration_seconds",
		Help:      "Call bridge session duration in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	audioBytesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_audio_bytes_total",
		Help:      "Audio bytes moved across the bridge",
	}, []string{"direction"})

	framesDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_frames_dropped_total",
		Help:      "Outbound audio frames dropped before the stream was addressable",
	})

	tokenMintsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_mints_total",
		Help:      "Token mint attempts by outcome",
	}, []string{"status"})

	rateLimitHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rate_limit_hits_total",
		Help:      "Token requests rejected by the rate limiter",
	})

	toolCallsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Function tool invocations by outcome",
	}, []string{"outcome"})

	registry.MustRegister(
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		audioBytesTotal,
		framesDropped,
		tokenMintsTotal,
		rateLimitHits,
		toolCallsTotal,
	)

	return &Metrics{
		registry:        registry,
		SessionsActive:  sessionsActive,
		SessionsTotal:   sessionsTotal,
		SessionDuration: sessionDuration,
		AudioBytesTotal: audioBytesTotal,
		FramesDropped:   framesDropped,
		TokenMintsTotal: tokenMintsTotal,
		RateLimitHits:   rateLimitHits,
		ToolCallsTotal:  toolCallsTotal,
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSessionStart() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) RecordSessionEnd(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(status).Inc()
	m.SessionDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordAudio(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AudioBytesTotal.WithLabelValues(direction).Add(float64(n))
}

func (m *Metrics) RecordFrameDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

func (m *Metrics) RecordTokenMint(status string) {
	if m == nil {
		return
	}
	m.TokenMintsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.RateLimitHits.Inc()
}

func (m *Metrics) RecordToolCall(outcome string) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(outcome).Inc()
}
