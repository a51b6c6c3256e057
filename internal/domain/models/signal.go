package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// UnknownInstrument is left in SignalResult.Instrument by analyzers; callers overwrite it.
const UnknownInstrument = "UNKNOWN"

// SignalResult is the output of one analysis call. Treat it as a value: it is never
// mutated after an analyzer returns it.
type SignalResult struct {
	Instrument          string  `json:"instrument"`
	SignalStrength      float64 `json:"signal_strength"`      // relative momentum, 0 = no trend
	Confidence          float64 `json:"confidence"`           // [0.1, 1.0]
	TemporalCorrelation float64 `json:"temporal_correlation"` // 0.5 under the classical backend
	ResonancePhase      float64 `json:"resonance_phase"`      // 0.0 under the classical backend
}

// WithInstrument returns a copy of r tagged with the given instrument.
func (r SignalResult) WithInstrument(instrument string) SignalResult {
	r.Instrument = instrument
	return r
}

// IsFinite reports whether every numeric field holds a finite value.
func (r SignalResult) IsFinite() bool {
	for _, v := range []float64{r.SignalStrength, r.Confidence, r.TemporalCorrelation, r.ResonancePhase} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SignalEvent is the envelope published to Kafka and websocket subscribers.
type SignalEvent struct {
	ID          string    `json:"id"`
	Backend     string    `json:"backend"`
	Timeframe   string    `json:"timeframe,omitempty"`
	Samples     int       `json:"samples"`
	GeneratedAt time.Time `json:"generated_at"`
	SignalResult
}

// NewSignalEvent wraps a result with a fresh event id and timestamp.
func NewSignalEvent(res SignalResult, backend, tf string, samples int) SignalEvent {
	return SignalEvent{
		ID:           uuid.NewString(),
		Backend:      backend,
		Timeframe:    tf,
		Samples:      samples,
		GeneratedAt:  time.Now().UTC(),
		SignalResult: res,
	}
}

// Candle represents an OHLCV record read from the feature store.
type Candle struct {
	Bucket time.Time `json:"bucket"`
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Tick is a single trade print consumed from the ticks topic.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"t"`
	Price     float64 `json:"c"`
	Volume    float64 `json:"v"`
}
