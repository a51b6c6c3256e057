package features

import "math"

const (
	// MomentumWindow is the size of both the recent and the older window.
	MomentumWindow = 5
	// MinConfidenceSamples is the series length below which confidence is the neutral default.
	MinConfidenceSamples = 10

	NeutralConfidence = 0.5
	ConfidenceFloor   = 0.1
)

// Momentum returns the relative change between the mean of the MomentumWindow most recent
// prices and the mean of the (up to) MomentumWindow prices before them.
// It is 0 when the older window is empty. The result is not clamped, and a zero older
// mean yields ±Inf or NaN.
func Momentum(prices []float64) float64 {
	n := len(prices)
	if n < 2 || n <= MomentumWindow {
		return 0
	}
	recent := windowMeanBackward(prices, n-MomentumWindow, n)
	older := windowMeanBackward(prices, max(n-2*MomentumWindow, 0), n-MomentumWindow)
	return (recent - older) / older
}

// Confidence maps relative volatility (population stddev over mean) to [ConfidenceFloor, 1].
// Series shorter than MinConfidenceSamples get NeutralConfidence.
func Confidence(prices []float64) float64 {
	if len(prices) < MinConfidenceSamples {
		return NeutralConfidence
	}
	mean := Mean(prices)
	volatility := math.Sqrt(PopulationVariance(prices, mean))
	ratio := minIgnoringNaN(volatility/mean, 1.0)
	return maxIgnoringNaN(1.0-ratio, ConfidenceFloor)
}

// Mean is the arithmetic mean; NaN for an empty slice.
func Mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopulationVariance is the variance around mean, divided by len(xs).
func PopulationVariance(xs []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}

// windowMeanBackward averages xs[from:to], accumulating from the newest sample.
func windowMeanBackward(xs []float64, from, to int) float64 {
	sum := 0.0
	for i := to - 1; i >= from; i-- {
		sum += xs[i]
	}
	return sum / float64(to-from)
}

// minIgnoringNaN returns the smaller operand; a NaN operand yields the other one.
// math.Min would propagate the NaN instead.
func minIgnoringNaN(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Min(a, b)
}

func maxIgnoringNaN(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Max(a, b)
}
