package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordSignal("classical", "BTCUSDT")
	r.RecordSignal("classical", "BTCUSDT")
	r.RecordError("analyze")
	r.RecordLastSignal("BTCUSDT", 0.25, 0.8)
	r.RecordLatency("analyze", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("classical", "BTCUSDT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("analyze")))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.lastStrength.WithLabelValues("BTCUSDT")))
	assert.Equal(t, 0.8, testutil.ToFloat64(r.lastConfidence.WithLabelValues("BTCUSDT")))

	n, err := testutil.GatherAndCount(reg, "chronosignal_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
