package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ChronoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAll struct{ denied map[string]bool }

func (a allowAll) Allow(key string) bool { return !a.denied[key] }

func tickJSON(t *testing.T, symbol string, ts int64, price float64) []byte {
	t.Helper()
	b, err := json.Marshal(models.Tick{Symbol: symbol, Timestamp: ts, Price: price, Volume: 1})
	require.NoError(t, err)
	return b
}

func newTicksHandler(pub *fakePublisher, m *fakeMetrics, th Throttle) *KafkaTicksHandler {
	svc := newTestService(nil, WithPublisher(pub), WithMetrics(m))
	return NewKafkaTicksHandler("ticks", NewPriceWindows(20, 0), svc, th, m)
}

func TestKafkaTicksHandler_AnalyzesOnceWindowFilled(t *testing.T) {
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	h := newTicksHandler(pub, m, nil)
	assert.Equal(t, "ticks", h.Topic())

	base := time.Now().Add(-time.Minute).UnixMilli()
	for i, p := range rising {
		require.NoError(t, h.Handle(context.Background(), tickJSON(t, "BTCUSDT", base+int64(i), p)))
	}

	evs := pub.published()
	// the first MomentumWindow ticks cannot produce momentum
	require.Len(t, evs, len(rising)-5)
	last := evs[len(evs)-1]
	assert.Equal(t, "BTCUSDT", last.Instrument)
	assert.InDelta(t, 0.1, last.SignalStrength, 1e-12)
	assert.Equal(t, len(rising), last.Samples)
}

func TestKafkaTicksHandler_BadPayloads(t *testing.T) {
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	h := newTicksHandler(pub, m, nil)

	err := h.Handle(context.Background(), []byte("{not json"))
	assert.Error(t, err)

	assert.NoError(t, h.Handle(context.Background(), tickJSON(t, "", 1, 10)))
	assert.NoError(t, h.Handle(context.Background(), tickJSON(t, "BTCUSDT", 1, -3)))

	assert.Equal(t, []string{"tick_unmarshal", "tick_invalid", "tick_invalid"}, m.errorKinds())
	assert.Empty(t, pub.published())
}

func TestKafkaTicksHandler_Throttled(t *testing.T) {
	pub := &fakePublisher{}
	h := newTicksHandler(pub, &fakeMetrics{}, allowAll{denied: map[string]bool{"ETHUSDT": true}})

	for i, p := range rising {
		require.NoError(t, h.Handle(context.Background(), tickJSON(t, "ETHUSDT", int64(1700000000+i), p)))
	}
	assert.Empty(t, pub.published())
}

func TestKafkaTicksHandler_NonFiniteIsDropped(t *testing.T) {
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	svc := NewSignalService(nil, nanAnalyzer{}, "advanced", WithPublisher(pub), WithMetrics(m))
	h := NewKafkaTicksHandler("ticks", NewPriceWindows(20, 0), svc, nil, m)

	for i, p := range rising {
		require.NoError(t, h.Handle(context.Background(), tickJSON(t, "X", int64(1700000000+i), p)))
	}
	assert.Empty(t, pub.published())
	assert.Contains(t, m.errorKinds(), "non_finite")
}

func TestKafkaTicksHandler_LateTickIsCounted(t *testing.T) {
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	svc := newTestService(nil, WithPublisher(pub), WithMetrics(m))
	windows := NewPriceWindows(20, time.Minute)
	h := NewKafkaTicksHandler("ticks", windows, svc, nil, m)

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Unix()
	require.NoError(t, h.Handle(context.Background(), tickJSON(t, "BTCUSDT", base, 100)))
	require.NoError(t, h.Handle(context.Background(), tickJSON(t, "BTCUSDT", base+60, 200)))
	require.NoError(t, h.Handle(context.Background(), tickJSON(t, "BTCUSDT", base+10, 101)))

	assert.Equal(t, []float64{100, 200}, windows.Snapshot("BTCUSDT"))
	assert.Equal(t, []string{"tick_late"}, m.errorKinds())
}
