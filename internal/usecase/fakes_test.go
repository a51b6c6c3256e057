package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	candles map[string][]models.Candle
	err     error
	calls   int
}

func (s *fakeStore) GetLatestNCandles(_ context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	cs := s.candles[symbol]
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

func candlesFrom(symbol string, closes ...float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Bucket: base.Add(time.Duration(i) * time.Minute), Symbol: symbol, Close: c}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.SignalEvent
	err    error
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, ev models.SignalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return p.err
}

func (p *fakePublisher) published() []models.SignalEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.SignalEvent(nil), p.events...)
}

type fakeMetrics struct {
	mu      sync.Mutex
	signals int
	errors  []string
}

func (m *fakeMetrics) RecordSignal(string, string) {
	m.mu.Lock()
	m.signals++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors = append(m.errors, kind)
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLastSignal(string, float64, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) errorKinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, []float64) (models.SignalResult, error) {
	return models.SignalResult{}, errors.New("backend down")
}

type nanAnalyzer struct{}

func (nanAnalyzer) Analyze(context.Context, []float64) (models.SignalResult, error) {
	return models.SignalResult{SignalStrength: math.NaN(), Confidence: 0.5}, nil
}
