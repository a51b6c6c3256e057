package service

import (
	"context"

	"ChronoSignal/internal/domain/models"
)

// SignalAnalyzer produces a trading signal from an ordered price series (oldest first).
// Implementations must be safe for concurrent use.
type SignalAnalyzer interface {
	Analyze(ctx context.Context, prices []float64) (models.SignalResult, error)
}

// AdvancedAnalyzer is the externally supplied analysis capability. Its internals are opaque;
// only the analysis call shape is relied upon.
type AdvancedAnalyzer interface {
	SignalAnalyzer
}
