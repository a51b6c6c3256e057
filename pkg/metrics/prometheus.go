package metrics

import (
	"ChronoSignal/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chronosignal"

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastStrength   *prometheus.GaugeVec
	lastConfidence *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New registers the recorder's collectors on reg. A nil reg means the
// default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Total number of signals computed",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastStrength: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_signal_strength",
				Help:      "Most recent signal strength per symbol",
			},
			[]string{"symbol"},
		),
		lastConfidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_signal_confidence",
				Help:      "Most recent signal confidence per symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(backend, symbol string) {
	r.signalsTotal.WithLabelValues(backend, symbol).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastSignal tracks the latest strength and confidence for a symbol.
func (r *Recorder) RecordLastSignal(symbol string, strength, confidence float64) {
	r.lastStrength.WithLabelValues(symbol).Set(strength)
	r.lastConfidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordSignal(string, string) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLastSignal(string, float64, float64) {}
func (Nop) RecordLatency(string, float64) {}
