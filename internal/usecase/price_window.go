package usecase

import (
	"sync"
	"time"

	"ChronoSignal/pkg/util"
)

type window struct {
	prices []float64 // ring buffer
	head   int       // index of the oldest price once full
	full   bool
	last   time.Time // bucket of the newest price
}

// PriceWindows keeps a bounded rolling window of recent prices per symbol.
// With a positive bucket width, ticks inside the newest bucket overwrite the
// newest price, so each element is a bucket close. Ticks for an older bucket
// are rejected.
type PriceWindows struct {
	mu       sync.RWMutex
	capacity int
	bucket   time.Duration
	m        map[string]*window
}

func NewPriceWindows(capacity int, bucket time.Duration) *PriceWindows {
	if capacity < 1 {
		capacity = 1
	}
	return &PriceWindows{capacity: capacity, bucket: bucket, m: make(map[string]*window)}
}

// Append records price for symbol at ts and returns the resulting window
// length. ok is false when ts falls before the newest bucket; the window is
// left untouched in that case.
func (p *PriceWindows) Append(symbol string, ts time.Time, price float64) (n int, ok bool) {
	b := util.BucketStart(ts, p.bucket)

	p.mu.Lock()
	defer p.mu.Unlock()
	w, found := p.m[symbol]
	if !found {
		w = &window{prices: make([]float64, 0, p.capacity)}
		p.m[symbol] = w
	}

	if p.bucket > 0 && w.size() > 0 {
		switch {
		case b.Before(w.last):
			return w.size(), false
		case b.Equal(w.last):
			w.prices[w.newest()] = price
			return w.size(), true
		}
	}
	w.last = b

	if !w.full {
		w.prices = append(w.prices, price)
		w.full = len(w.prices) == p.capacity
		return w.size(), true
	}
	w.prices[w.head] = price
	w.head = (w.head + 1) % p.capacity
	return w.size(), true
}

// Snapshot returns a copy of symbol's window, oldest first.
func (p *PriceWindows) Snapshot(symbol string) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	w, ok := p.m[symbol]
	if !ok {
		return []float64{}
	}
	out := make([]float64, 0, len(w.prices))
	out = append(out, w.prices[w.head:]...)
	return append(out, w.prices[:w.head]...)
}

// Symbols returns the symbols with at least one price.
func (p *PriceWindows) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.m))
	for s := range p.m {
		out = append(out, s)
	}
	return out
}

func (w *window) size() int { return len(w.prices) }

func (w *window) newest() int {
	if !w.full {
		return len(w.prices) - 1
	}
	return (w.head - 1 + len(w.prices)) % len(w.prices)
}
