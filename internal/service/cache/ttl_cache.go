package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

const defaultSweepInterval = time.Minute

// TTLCache is the in-process BytesCache and Locker used when Redis is disabled.
// Expired entries and locks are dropped on read and by a sweep that runs on
// writes at most once per sweepEvery.
type TTLCache struct {
	mu         sync.Mutex
	m          map[string]entry
	locks      map[string]time.Time
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

var (
	_ BytesCache = (*TTLCache)(nil)
	_ Locker     = (*TTLCache)(nil)
)

func NewTTLCache() *TTLCache {
	return &TTLCache{
		m:          make(map[string]entry),
		locks:      make(map[string]time.Time),
		now:        time.Now,
		sweepEvery: defaultSweepInterval,
	}
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.mu.Lock()
	c.sweep(now)
	c.m[key] = entry{v: append([]byte(nil), value...), exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweep(now)
	if until, held := c.locks[key]; held && now.Before(until) {
		return false, nil
	}
	c.locks[key] = now.Add(ttl)
	return true, nil
}

func (c *TTLCache) Unlock(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.locks, key)
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.sweepEvery {
		return
	}
	c.lastSweep = now
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
		}
	}
	for k, until := range c.locks {
		if !now.Before(until) {
			delete(c.locks, k)
		}
	}
}
