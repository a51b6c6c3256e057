package analytics

import (
	"context"
	"time"

	"ChronoSignal/internal/domain/models"
	domsvc "ChronoSignal/internal/domain/service"
)

const signalAnalyzePath = "/signal/analyze"

// HTTPAdvancedAnalyzer delegates analysis to an external analytics service.
type HTTPAdvancedAnalyzer struct {
	base     *HTTPServiceBase
	attempts int
}

// NewHTTPAdvancedAnalyzer fails when the service url is empty.
func NewHTTPAdvancedAnalyzer(serviceURL string, timeout time.Duration, attempts int) (*HTTPAdvancedAnalyzer, error) {
	base, err := NewHTTPServiceBase(serviceURL, timeout)
	if err != nil {
		return nil, err
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPAdvancedAnalyzer{base: base, attempts: attempts}, nil
}

// HTTPAdvancedFactory returns an AdvancedFactory building an HTTPAdvancedAnalyzer.
func HTTPAdvancedFactory(serviceURL string, timeout time.Duration, attempts int) AdvancedFactory {
	return func() (domsvc.AdvancedAnalyzer, error) {
		return NewHTTPAdvancedAnalyzer(serviceURL, timeout, attempts)
	}
}

type signalRequest struct {
	Prices []float64 `json:"prices"`
}

type signalResponse struct {
	SignalStrength      float64 `json:"signal_strength"`
	Confidence          float64 `json:"confidence"`
	TemporalCorrelation float64 `json:"temporal_correlation"`
	ResonancePhase      float64 `json:"resonance_phase"`
}

func (a *HTTPAdvancedAnalyzer) Analyze(ctx context.Context, prices []float64) (models.SignalResult, error) {
	if prices == nil {
		prices = []float64{}
	}
	var sr signalResponse
	if err := a.base.PostJSONWithRetry(ctx, signalAnalyzePath, signalRequest{Prices: prices}, &sr, a.attempts); err != nil {
		return models.SignalResult{}, &ComputationError{Op: "advanced analyze", Err: err}
	}
	return models.SignalResult{
		Instrument:          models.UnknownInstrument,
		SignalStrength:      sr.SignalStrength,
		Confidence:          sr.Confidence,
		TemporalCorrelation: sr.TemporalCorrelation,
		ResonancePhase:      sr.ResonancePhase,
	}, nil
}

var _ domsvc.AdvancedAnalyzer = (*HTTPAdvancedAnalyzer)(nil)
