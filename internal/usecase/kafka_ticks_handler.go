package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/services/features"
	pkgkafka "ChronoSignal/pkg/kafka"
	applogger "ChronoSignal/pkg/logger"
	"ChronoSignal/pkg/util"
)

// PriceAnalyzer is the part of SignalService the ticks handler drives.
type PriceAnalyzer interface {
	AnalyzePrices(ctx context.Context, symbol string, prices []float64) (models.SignalEvent, error)
}

// Throttle limits how often one symbol is analyzed.
type Throttle interface {
	Allow(key string) bool
}

// KafkaTicksHandler turns ticks into signals over per-symbol rolling windows.
// It serves the Kafka ticks topic and the direct trade stream alike.
type KafkaTicksHandler struct {
	topic    string
	windows  *PriceWindows
	analyzer PriceAnalyzer
	throttle Throttle
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)

func NewKafkaTicksHandler(topic string, windows *PriceWindows, analyzer PriceAnalyzer, throttle Throttle, metrics domrepo.Metrics) *KafkaTicksHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &KafkaTicksHandler{
		topic:    topic,
		windows:  windows,
		analyzer: analyzer,
		throttle: throttle,
		metrics:  metrics,
		log:      applogger.NewNop(),
	}
}

// SetLogger injects a structured logger.
func (h *KafkaTicksHandler) SetLogger(l *applogger.Logger) {
	if l != nil {
		h.log = l
	}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// Handle consumes one {symbol, t, c, v} tick. Undecodable payloads are
// returned as errors so the consumer can dead-letter them.
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var t models.Tick
	if err := json.Unmarshal(b, &t); err != nil {
		h.metrics.RecordError("tick_unmarshal")
		return fmt.Errorf("decode tick: %w", err)
	}
	return h.HandleTick(ctx, t)
}

// HandleTick appends t to its symbol window and analyzes the window once it
// can produce a momentum reading. Ticks that make no sense are dropped.
func (h *KafkaTicksHandler) HandleTick(ctx context.Context, t models.Tick) error {
	if t.Symbol == "" || t.Price <= 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		h.metrics.RecordError("tick_invalid")
		return nil
	}

	ts := util.FromUnixAuto(t.Timestamp)
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		h.metrics.RecordLatency("ingest_e2e", time.Since(ts).Seconds())
	}

	n, ok := h.windows.Append(t.Symbol, ts, t.Price)
	if !ok {
		h.metrics.RecordError("tick_late")
		return nil
	}
	if n <= features.MomentumWindow {
		return nil
	}
	if h.throttle != nil && !h.throttle.Allow(t.Symbol) {
		return nil
	}

	ev, err := h.analyzer.AnalyzePrices(ctx, t.Symbol, h.windows.Snapshot(t.Symbol))
	switch {
	case errors.Is(err, ErrNonFiniteSignal):
		return nil
	case err != nil:
		return err
	}
	h.log.Debug("tick signal",
		applogger.String("symbol", ev.Instrument),
		applogger.Int("samples", ev.Samples),
		applogger.Float64("signal_strength", ev.SignalStrength),
		applogger.Float64("confidence", ev.Confidence),
	)
	return nil
}
