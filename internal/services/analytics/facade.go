package analytics

import (
	"context"

	"ChronoSignal/internal/domain/models"
	domsvc "ChronoSignal/internal/domain/service"
)

// Backend names an analysis strategy.
type Backend string

const (
	BackendClassical Backend = "classical"
	BackendAdvanced  Backend = "advanced"
)

// AdvancedFactory constructs the advanced capability. It may fail.
type AdvancedFactory func() (domsvc.AdvancedAnalyzer, error)

// FacadeConfig selects the backend bound by NewAnalyzerFacade.
// Advanced is consulted only when Backend is BackendAdvanced.
type FacadeConfig struct {
	Backend  Backend
	Advanced AdvancedFactory
}

// AnalyzerFacade is the single entry point for signal analysis. The strategy is bound at
// construction and fixed for the facade's lifetime; the facade keeps no other state, so
// concurrent calls are independent.
type AnalyzerFacade struct {
	backend  Backend
	strategy domsvc.SignalAnalyzer
}

// NewAnalyzerFacade binds the advanced backend when cfg asks for it and the classical
// backend for any other value. Only advanced construction can fail; the failure is
// returned as *InitializationError wrapping the factory's error.
func NewAnalyzerFacade(cfg FacadeConfig) (*AnalyzerFacade, error) {
	if cfg.Backend != BackendAdvanced {
		return NewClassicalFacade(), nil
	}
	if cfg.Advanced == nil {
		return nil, &InitializationError{Backend: BackendAdvanced, Err: ErrAdvancedUnavailable}
	}
	adv, err := cfg.Advanced()
	if err != nil {
		return nil, &InitializationError{Backend: BackendAdvanced, Err: err}
	}
	if adv == nil {
		return nil, &InitializationError{Backend: BackendAdvanced, Err: ErrAdvancedUnavailable}
	}
	return &AnalyzerFacade{backend: BackendAdvanced, strategy: adv}, nil
}

// NewClassicalFacade returns a facade bound to the classical analyzer.
func NewClassicalFacade() *AnalyzerFacade {
	return &AnalyzerFacade{backend: BackendClassical, strategy: NewClassicalAnalyzer()}
}

// Backend reports the bound strategy.
func (f *AnalyzerFacade) Backend() Backend { return f.backend }

// AnalyzeSignals runs the bound strategy over prices. Errors from the strategy are
// returned unchanged. The result carries models.UnknownInstrument until the caller
// sets the instrument.
func (f *AnalyzerFacade) AnalyzeSignals(ctx context.Context, prices []float64) (models.SignalResult, error) {
	res, err := f.strategy.Analyze(ctx, prices)
	if err != nil {
		return models.SignalResult{}, err
	}
	if res.Instrument == "" {
		res.Instrument = models.UnknownInstrument
	}
	return res, nil
}

// Analyze makes the facade usable wherever a domain SignalAnalyzer is expected.
func (f *AnalyzerFacade) Analyze(ctx context.Context, prices []float64) (models.SignalResult, error) {
	return f.AnalyzeSignals(ctx, prices)
}

// AnalyzeInstrument analyzes prices and tags the result with instrument.
func (f *AnalyzerFacade) AnalyzeInstrument(ctx context.Context, instrument string, prices []float64) (models.SignalResult, error) {
	res, err := f.AnalyzeSignals(ctx, prices)
	if err != nil {
		return models.SignalResult{}, err
	}
	return res.WithInstrument(instrument), nil
}

var _ domsvc.SignalAnalyzer = (*AnalyzerFacade)(nil)
