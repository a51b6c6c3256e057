package analytics

import (
	"context"

	"ChronoSignal/internal/domain/models"
	domsvc "ChronoSignal/internal/domain/service"
	"ChronoSignal/internal/services/features"
)

const (
	// ClassicalTemporalCorrelation is reported because the classical backend has no correlation model.
	ClassicalTemporalCorrelation = 0.5
	// ClassicalResonancePhase is reported because resonance needs the advanced backend.
	ClassicalResonancePhase = 0.0
)

// ClassicalAnalyzer scores momentum and confidence with elementary statistics.
// It never fails and never blocks; degenerate input may produce non-finite values,
// which are returned as-is.
type ClassicalAnalyzer struct{}

func NewClassicalAnalyzer() *ClassicalAnalyzer { return &ClassicalAnalyzer{} }

func (ClassicalAnalyzer) Analyze(_ context.Context, prices []float64) (models.SignalResult, error) {
	return models.SignalResult{
		Instrument:          models.UnknownInstrument,
		SignalStrength:      features.Momentum(prices),
		Confidence:          features.Confidence(prices),
		TemporalCorrelation: ClassicalTemporalCorrelation,
		ResonancePhase:      ClassicalResonancePhase,
	}, nil
}

var _ domsvc.SignalAnalyzer = (*ClassicalAnalyzer)(nil)
