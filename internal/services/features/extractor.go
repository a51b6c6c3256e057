package features

import (
	"time"

	"ChronoSignal/internal/domain/models"
	"ChronoSignal/pkg/util"
)

// Closes extracts close prices in candle order.
// It returns an empty (non-nil) slice when there are no candles.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}

// Resample folds ascending candles into buckets of the given width.
// Open comes from the first candle of a bucket, Close from the last; High/Low/Volume aggregate.
func Resample(candles []models.Candle, width time.Duration) []models.Candle {
	if width <= 0 || len(candles) == 0 {
		return candles
	}
	out := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		bucket := util.BucketStart(c.Bucket, width)
		if n := len(out); n > 0 && out[n-1].Bucket.Equal(bucket) {
			cur := &out[n-1]
			if c.High > cur.High {
				cur.High = c.High
			}
			if c.Low < cur.Low {
				cur.Low = c.Low
			}
			cur.Close = c.Close
			cur.Volume += c.Volume
			continue
		}
		c.Bucket = bucket
		out = append(out, c)
	}
	return out
}
