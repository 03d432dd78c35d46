package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the recorder's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	ActiveSessions  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	FramesTotal     prometheus.Counter
	CaptureFailures prometheus.Counter
	ForcedStops     prometheus.Counter
	EncodesTotal    *prometheus.CounterVec
	EncodeSeconds   prometheus.Histogram
	ProbesTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "screen_recorder",
			Name:      "active_sessions",
			Help:      "Number of active recording sessions",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "sessions_total",
			Help:      "Recording sessions by how they ended",
		}, []string{"end"}),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "frames_total",
			Help:      "Total frames captured",
		}),
		CaptureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "capture_failures_total",
			Help:      "Screen captures that failed and were skipped",
		}),
		ForcedStops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "forced_stops_total",
			Help:      "Sessions finalized because a new session started",
		}),
		EncodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "encodes_total",
			Help:      "Encode outcomes by artifact kind",
		}, []string{"kind"}),
		EncodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "screen_recorder",
			Name:      "encode_seconds",
			Help:      "Wall time spent producing an artifact",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ProbesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screen_recorder",
			Name:      "encoder_probes_total",
			Help:      "External encoder availability probes by result",
		}, []string{"available"}),
	}
	r.MustRegister(m.ActiveSessions, m.SessionsTotal, m.FramesTotal, m.CaptureFailures,
		m.ForcedStops, m.EncodesTotal, m.EncodeSeconds, m.ProbesTotal)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionEnded records a finished session; end is the artifact kind or "none".
func (m *Metrics) SessionEnded(end string, forced bool) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionsTotal.WithLabelValues(end).Inc()
	if forced {
		m.ForcedStops.Inc()
	}
}

func (m *Metrics) FrameCaptured() {
	if m == nil {
		return
	}
	m.FramesTotal.Inc()
}

func (m *Metrics) CaptureFailed(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.CaptureFailures.Add(float64(n))
}

func (m *Metrics) Encoded(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.EncodesTotal.WithLabelValues(kind).Inc()
	m.EncodeSeconds.Observe(took.Seconds())
}

func (m *Metrics) Probed(available bool) {
	if m == nil {
		return
	}
	label := "false"
	if available {
		label = "true"
	}
	m.ProbesTotal.WithLabelValues(label).Inc()
}
