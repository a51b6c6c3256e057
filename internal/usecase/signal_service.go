package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	domsvc "ChronoSignal/internal/domain/service"
	icache "ChronoSignal/internal/service/cache"
	"ChronoSignal/internal/services/features"
	applogger "ChronoSignal/pkg/logger"
)

var (
	// ErrNonFiniteSignal means the analyzer produced NaN or ±Inf, typically
	// because the older momentum window averaged to zero.
	ErrNonFiniteSignal = errors.New("signal is not finite")
	ErrNoFeatureStore  = errors.New("feature store is not configured")
	ErrNoData          = errors.New("no candles for symbol")
)

// SignalService runs the analyzer for stored candles or caller-supplied
// prices, then caches and publishes the result.
type SignalService struct {
	store    domrepo.FeatureStore
	analyzer domsvc.SignalAnalyzer
	backend  string
	cache    icache.BytesCache
	cacheTTL time.Duration
	pub      domrepo.SignalPublisher
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

type SignalServiceOption func(*SignalService)

// WithCache enables result caching for Latest.
func WithCache(c icache.BytesCache, ttl time.Duration) SignalServiceOption {
	return func(s *SignalService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithPublisher(p domrepo.SignalPublisher) SignalServiceOption {
	return func(s *SignalService) { s.pub = p }
}

func WithMetrics(m domrepo.Metrics) SignalServiceOption {
	return func(s *SignalService) { s.metrics = m }
}

func WithLogger(l *applogger.Logger) SignalServiceOption {
	return func(s *SignalService) { s.log = l }
}

// NewSignalService wires an analyzer reported under backend. store may be nil
// when only AnalyzePrices is used.
func NewSignalService(store domrepo.FeatureStore, analyzer domsvc.SignalAnalyzer, backend string, opts ...SignalServiceOption) *SignalService {
	s := &SignalService{
		store:    store,
		analyzer: analyzer,
		backend:  backend,
		pub:      nopPublisher{},
		metrics:  nopMetrics{},
		log:      applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SignalService) Backend() string { return s.backend }

// Latest analyzes the closes of the n most recent tf candles for symbol.
// Results are served from cache while fresh.
func (s *SignalService) Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.SignalEvent, error) {
	if s.store == nil {
		return models.SignalEvent{}, ErrNoFeatureStore
	}
	start := time.Now()
	key := cacheKey(symbol, tf, n)

	if ev, ok := s.cached(ctx, key); ok {
		s.metrics.RecordLatency("latest_cached", time.Since(start).Seconds())
		return ev, nil
	}

	candles, err := s.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		s.metrics.RecordError("feature_store")
		return models.SignalEvent{}, fmt.Errorf("load candles %s/%s: %w", symbol, tf, err)
	}
	if len(candles) == 0 {
		return models.SignalEvent{}, fmt.Errorf("%s/%s: %w", symbol, tf, ErrNoData)
	}

	ev, err := s.analyze(ctx, symbol, string(tf), features.Closes(candles))
	if err != nil {
		return models.SignalEvent{}, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(ev); err == nil {
			if err := s.cache.SetBytes(ctx, key, b, s.cacheTTL); err != nil {
				s.metrics.RecordError("cache_set")
				s.log.Warn("signal cache set", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
	s.metrics.RecordLatency("latest", time.Since(start).Seconds())
	return ev, nil
}

// AnalyzePrices analyzes an ordered price series (oldest first) for symbol.
// Nothing is cached.
func (s *SignalService) AnalyzePrices(ctx context.Context, symbol string, prices []float64) (models.SignalEvent, error) {
	start := time.Now()
	ev, err := s.analyze(ctx, symbol, "", prices)
	if err != nil {
		return models.SignalEvent{}, err
	}
	s.metrics.RecordLatency("analyze_prices", time.Since(start).Seconds())
	return ev, nil
}

func (s *SignalService) analyze(ctx context.Context, symbol, tf string, prices []float64) (models.SignalEvent, error) {
	if symbol == "" {
		symbol = models.UnknownInstrument
	}
	res, err := s.analyzer.Analyze(ctx, prices)
	if err != nil {
		s.metrics.RecordError("analyze")
		return models.SignalEvent{}, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	res = res.WithInstrument(symbol)

	if !res.IsFinite() {
		s.metrics.RecordError("non_finite")
		s.log.Warn("non-finite signal",
			applogger.String("symbol", symbol),
			applogger.Int("samples", len(prices)),
			applogger.Float64("signal_strength", res.SignalStrength),
			applogger.Float64("confidence", res.Confidence),
		)
		return models.SignalEvent{}, fmt.Errorf("%s: %w", symbol, ErrNonFiniteSignal)
	}

	ev := models.NewSignalEvent(res, s.backend, tf, len(prices))
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.metrics.RecordError("publish")
		s.log.Warn("signal publish", applogger.String("symbol", symbol), applogger.Error(err))
	}
	s.metrics.RecordSignal(s.backend, symbol)
	s.metrics.RecordLastSignal(symbol, res.SignalStrength, res.Confidence)
	return ev, nil
}

func (s *SignalService) cached(ctx context.Context, key string) (models.SignalEvent, bool) {
	if s.cache == nil {
		return models.SignalEvent{}, false
	}
	b, ok, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		s.metrics.RecordError("cache_get")
		s.log.Warn("signal cache get", applogger.String("key", key), applogger.Error(err))
		return models.SignalEvent{}, false
	}
	if !ok {
		return models.SignalEvent{}, false
	}
	var ev models.SignalEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return models.SignalEvent{}, false
	}
	return ev, true
}

func cacheKey(symbol string, tf domrepo.Timeframe, n int) string {
	return fmt.Sprintf("signal:%s:%s:%d", symbol, tf, n)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.SignalEvent) error { return nil }
func (nopPublisher) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLastSignal(string, float64, float64) {}
func (nopMetrics) RecordLatency(string, float64) {}
