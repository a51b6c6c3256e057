package metrics

import (
	"context"
	"time"

	"ChronoSignal/internal/domain/models"
	domsvc "ChronoSignal/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AnalyzerMetrics holds per-backend analysis latency and error collectors.
type AnalyzerMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	inputs  *prometheus.HistogramVec
}

func NewAnalyzerMetrics(reg prometheus.Registerer) *AnalyzerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &AnalyzerMetrics{
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chronosignal",
				Subsystem: "analytics",
				Name:      "latency_seconds",
				Help:      "Latency of signal analysis by backend",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"backend"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chronosignal",
				Subsystem: "analytics",
				Name:      "errors_total",
				Help:      "Analysis errors by backend",
			},
			[]string{"backend"},
		),
		inputs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chronosignal",
				Subsystem: "analytics",
				Name:      "input_samples",
				Help:      "Number of prices per analysis call",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"backend"},
		),
	}
}

// Instrument wraps next so every call is timed and counted under backend.
func (m *AnalyzerMetrics) Instrument(backend string, next domsvc.SignalAnalyzer) domsvc.SignalAnalyzer {
	return &instrumented{backend: backend, next: next, m: m}
}

type instrumented struct {
	backend string
	next    domsvc.SignalAnalyzer
	m       *AnalyzerMetrics
}

func (a *instrumented) Analyze(ctx context.Context, prices []float64) (models.SignalResult, error) {
	start := time.Now()
	res, err := a.next.Analyze(ctx, prices)
	a.m.latency.WithLabelValues(a.backend).Observe(time.Since(start).Seconds())
	a.m.inputs.WithLabelValues(a.backend).Observe(float64(len(prices)))
	if err != nil {
		a.m.errors.WithLabelValues(a.backend).Inc()
	}
	return res, err
}
