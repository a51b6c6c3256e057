package analytics

import (
	"context"
	"math"
	"testing"

	"ChronoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassicalAnalyzer_Scenarios(t *testing.T) {
	ctx := context.Background()
	a := NewClassicalAnalyzer()

	t.Run("eleven ones", func(t *testing.T) {
		res, err := a.Analyze(ctx, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.SignalStrength)
		assert.Equal(t, 1.0, res.Confidence)
	})

	t.Run("breakout above older window", func(t *testing.T) {
		res, err := a.Analyze(ctx, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 20, 20, 20, 20, 20})
		require.NoError(t, err)
		assert.Equal(t, 1.5, res.SignalStrength)
		assert.GreaterOrEqual(t, res.Confidence, 0.1)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	})

	t.Run("five samples", func(t *testing.T) {
		res, err := a.Analyze(ctx, []float64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.SignalStrength)
		assert.Equal(t, 0.5, res.Confidence)
	})

	t.Run("empty input", func(t *testing.T) {
		res, err := a.Analyze(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.SignalResult{
			Instrument:          models.UnknownInstrument,
			SignalStrength:      0,
			Confidence:          0.5,
			TemporalCorrelation: 0.5,
			ResonancePhase:      0,
		}, res)
	})
}

func TestClassicalAnalyzer_Properties(t *testing.T) {
	ctx := context.Background()
	a := NewClassicalAnalyzer()

	series := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		series = append(series, 100+10*math.Sin(float64(i)/3)+float64(i)/4)
	}

	for n := 0; n <= len(series); n++ {
		prices := series[:n]
		res, err := a.Analyze(ctx, prices)
		require.NoError(t, err)

		if n < 6 {
			assert.Equal(t, 0.0, res.SignalStrength, "n=%d", n)
		}
		if n < 10 {
			assert.Equal(t, 0.5, res.Confidence, "n=%d", n)
		} else {
			assert.GreaterOrEqual(t, res.Confidence, 0.1, "n=%d", n)
			assert.LessOrEqual(t, res.Confidence, 1.0, "n=%d", n)
		}
		assert.Equal(t, 0.5, res.TemporalCorrelation)
		assert.Equal(t, 0.0, res.ResonancePhase)
		assert.Equal(t, models.UnknownInstrument, res.Instrument)

		again, err := a.Analyze(ctx, prices)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(res.SignalStrength), math.Float64bits(again.SignalStrength))
		assert.Equal(t, math.Float64bits(res.Confidence), math.Float64bits(again.Confidence))
	}
}

func TestClassicalAnalyzer_DoesNotTouchInput(t *testing.T) {
	prices := []float64{5, 4, 3, 2, 1, 2, 3, 4, 5, 6, 7}
	snapshot := append([]float64(nil), prices...)
	_, err := NewClassicalAnalyzer().Analyze(context.Background(), prices)
	require.NoError(t, err)
	assert.Equal(t, snapshot, prices)
}

func TestClassicalAnalyzer_DegenerateInputPassesThrough(t *testing.T) {
	res, err := NewClassicalAnalyzer().Analyze(context.Background(), []float64{0, 0, 0, 0, 0, 3, 3, 3, 3, 3})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.SignalStrength, 1))
	assert.False(t, res.IsFinite())
}
