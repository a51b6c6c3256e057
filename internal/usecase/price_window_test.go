package usecase

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceWindows_BoundedOldestFirst(t *testing.T) {
	w := NewPriceWindows(3, 0)
	ts := time.Unix(1700000000, 0)
	for i, p := range []float64{1, 2, 3, 4, 5} {
		w.Append("BTC", ts.Add(time.Duration(i)*time.Second), p)
	}
	assert.Equal(t, []float64{3, 4, 5}, w.Snapshot("BTC"))
	assert.Empty(t, w.Snapshot("ETH"))
}

func TestPriceWindows_SnapshotIsCopy(t *testing.T) {
	w := NewPriceWindows(4, 0)
	w.Append("BTC", time.Now(), 1)
	snap := w.Snapshot("BTC")
	snap[0] = 42
	assert.Equal(t, []float64{1}, w.Snapshot("BTC"))
}

func TestPriceWindows_SameBucketReplacesClose(t *testing.T) {
	w := NewPriceWindows(10, time.Minute)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assertAppend(t, w, "BTC", base.Add(5*time.Second), 100, 1)
	assertAppend(t, w, "BTC", base.Add(40*time.Second), 101, 1)
	assertAppend(t, w, "BTC", base.Add(61*time.Second), 102, 2)
	assertAppend(t, w, "BTC", base.Add(119*time.Second), 103, 2)

	assert.Equal(t, []float64{101, 103}, w.Snapshot("BTC"))
}

func TestPriceWindows_LateTickKeepsNewestClose(t *testing.T) {
	w := NewPriceWindows(10, time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assertAppend(t, w, "BTC", base, 100, 1)
	assertAppend(t, w, "BTC", base.Add(time.Minute), 200, 2)

	n, ok := w.Append("BTC", base.Add(10*time.Second), 101)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{100, 200}, w.Snapshot("BTC"))

	// the newest bucket still accepts updates
	assertAppend(t, w, "BTC", base.Add(time.Minute+30*time.Second), 201, 2)
	assert.Equal(t, []float64{100, 201}, w.Snapshot("BTC"))
}

func TestPriceWindows_UnbucketedAcceptsAnyOrder(t *testing.T) {
	w := NewPriceWindows(5, 0)
	base := time.Unix(1700000000, 0)
	assertAppend(t, w, "BTC", base.Add(time.Minute), 1, 1)
	assertAppend(t, w, "BTC", base, 2, 2)
	assert.Equal(t, []float64{1, 2}, w.Snapshot("BTC"))
}

func assertAppend(t *testing.T, w *PriceWindows, symbol string, ts time.Time, price float64, want int) {
	t.Helper()
	n, ok := w.Append(symbol, ts, price)
	assert.True(t, ok)
	assert.Equal(t, want, n)
}

func TestPriceWindows_BucketReplaceWhenFull(t *testing.T) {
	w := NewPriceWindows(2, time.Second)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.Append("X", base, 1)
	w.Append("X", base.Add(time.Second), 2)
	w.Append("X", base.Add(2*time.Second), 3)
	w.Append("X", base.Add(2*time.Second+500*time.Millisecond), 4)
	assert.Equal(t, []float64{2, 4}, w.Snapshot("X"))
}

func TestPriceWindows_Symbols(t *testing.T) {
	w := NewPriceWindows(0, 0)
	w.Append("B", time.Now(), 1)
	w.Append("A", time.Now(), 1)
	w.Append("A", time.Now(), 2)

	got := w.Symbols()
	sort.Strings(got)
	assert.Equal(t, []string{"A", "B"}, got)
	assert.Equal(t, []float64{2}, w.Snapshot("A"))
}
