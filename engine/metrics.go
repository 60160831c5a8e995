package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "spanq"

// Failure stages reported by the errors_total counter.
const (
	StageProbe  = "probe"
	StageBounds = "bounds"
	StageFetch  = "fetch"
)

// Metrics is the Prometheus instrumentation shared by a set of engines.
// All methods are safe on a nil receiver.
type Metrics struct {
	frames       *prometheus.CounterVec
	rows         *prometheus.CounterVec
	probes       *prometheus.CounterVec
	errors       *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg. An empty namespace
// means DefaultNamespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "frames_total",
			Help:      "Frames built per track",
		}, []string{"track"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rows_total",
			Help:      "Rows aggregated into frames per track",
		}, []string{"track"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "probes_total",
			Help:      "Max duration probes by outcome",
		}, []string{"track", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Source failures by stage",
		}, []string{"track", "stage"}),
		fetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fetch_duration_seconds",
			Help:      "Interval fetch latency in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"track"}),
	}
}

func (m *Metrics) recordFrame(track string, rows int) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(track).Inc()
	m.rows.WithLabelValues(track).Add(float64(rows))
}

func (m *Metrics) recordProbe(track string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.probes.WithLabelValues(track, status).Inc()
}

func (m *Metrics) recordError(track, stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(track, stage).Inc()
}

func (m *Metrics) observeFetch(track string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchLatency.WithLabelValues(track).Observe(d.Seconds())
}
