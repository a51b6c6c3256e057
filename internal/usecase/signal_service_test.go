package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	icache "ChronoSignal/internal/service/cache"
	"ChronoSignal/internal/services/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rising = []float64{100, 100, 100, 100, 100, 110, 110, 110, 110, 110}

func newTestService(store domrepo.FeatureStore, opts ...SignalServiceOption) *SignalService {
	return NewSignalService(store, analytics.NewClassicalAnalyzer(), string(analytics.BackendClassical), opts...)
}

func TestSignalService_LatestAnalyzesCloses(t *testing.T) {
	store := &fakeStore{candles: map[string][]models.Candle{"BTCUSDT": candlesFrom("BTCUSDT", rising...)}}
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	svc := newTestService(store, WithPublisher(pub), WithMetrics(m))

	ev, err := svc.Latest(context.Background(), "BTCUSDT", 120, domrepo.TF1m)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", ev.Instrument)
	assert.InDelta(t, 0.1, ev.SignalStrength, 1e-12)
	assert.Equal(t, 0.5, ev.TemporalCorrelation)
	assert.Equal(t, 0.0, ev.ResonancePhase)
	assert.Equal(t, "classical", ev.Backend)
	assert.Equal(t, "1m", ev.Timeframe)
	assert.Equal(t, 10, ev.Samples)
	assert.NotEmpty(t, ev.ID)

	require.Len(t, pub.published(), 1)
	assert.Equal(t, ev.ID, pub.published()[0].ID)
	assert.Equal(t, 1, m.signals)
}

func TestSignalService_LatestServedFromCache(t *testing.T) {
	store := &fakeStore{candles: map[string][]models.Candle{"ETHUSDT": candlesFrom("ETHUSDT", rising...)}}
	pub := &fakePublisher{}
	svc := newTestService(store, WithCache(icache.NewTTLCache(), time.Minute), WithPublisher(pub))

	first, err := svc.Latest(context.Background(), "ETHUSDT", 50, domrepo.TF1m)
	require.NoError(t, err)
	second, err := svc.Latest(context.Background(), "ETHUSDT", 50, domrepo.TF1m)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.calls)
	assert.Len(t, pub.published(), 1)

	// different n is a different key
	_, err = svc.Latest(context.Background(), "ETHUSDT", 51, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestSignalService_LatestErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(nil).Latest(ctx, "BTCUSDT", 10, domrepo.TF1m)
	assert.ErrorIs(t, err, ErrNoFeatureStore)

	_, err = newTestService(&fakeStore{}).Latest(ctx, "BTCUSDT", 10, domrepo.TF1m)
	assert.ErrorIs(t, err, ErrNoData)

	cause := errors.New("clickhouse timeout")
	m := &fakeMetrics{}
	_, err = newTestService(&fakeStore{err: cause}, WithMetrics(m)).Latest(ctx, "BTCUSDT", 10, domrepo.TF1m)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"feature_store"}, m.errorKinds())
}

func TestSignalService_NonFiniteIsRejected(t *testing.T) {
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	svc := newTestService(nil, WithPublisher(pub), WithMetrics(m))

	_, err := svc.AnalyzePrices(context.Background(), "ZERO", []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, ErrNonFiniteSignal)
	assert.Empty(t, pub.published())
	assert.Equal(t, []string{"non_finite"}, m.errorKinds())
}

func TestSignalService_AnalyzePrices(t *testing.T) {
	svc := newTestService(nil)

	ev, err := svc.AnalyzePrices(context.Background(), "", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownInstrument, ev.Instrument)
	assert.Equal(t, 0.0, ev.SignalStrength)
	assert.Equal(t, 0.5, ev.Confidence)
	assert.Empty(t, ev.Timeframe)

	ev, err = svc.AnalyzePrices(context.Background(), "SOLUSDT", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Samples)
	assert.Equal(t, 0.5, ev.Confidence)
}

func TestSignalService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker gone")}
	m := &fakeMetrics{}
	svc := newTestService(nil, WithPublisher(pub), WithMetrics(m))

	_, err := svc.AnalyzePrices(context.Background(), "BTCUSDT", rising)
	require.NoError(t, err)
	assert.Equal(t, []string{"publish"}, m.errorKinds())
}

func TestSignalService_AnalyzerError(t *testing.T) {
	svc := NewSignalService(nil, failingAnalyzer{}, "advanced")
	_, err := svc.AnalyzePrices(context.Background(), "BTCUSDT", rising)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.Equal(t, "advanced", svc.Backend())
}
