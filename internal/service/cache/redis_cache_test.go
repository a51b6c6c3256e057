package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockRedis models SET NX and the compare-and-delete unlock script.
// Other UniversalClient methods are not used by the lock path.
type lockRedis struct {
	redis.UniversalClient

	mu sync.Mutex
	kv map[string]string
}

func newLockRedis() *lockRedis { return &lockRedis{kv: make(map[string]string)} }

func (f *lockRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kv[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.kv[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *lockRedis) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.kv[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(f.kv, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

// expireAndSteal simulates the TTL running out and another replica taking key.
func (f *lockRedis) expireAndSteal(key, token string) {
	f.mu.Lock()
	f.kv[key] = token
	f.mu.Unlock()
}

func (f *lockRedis) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	return v, ok
}

func TestRedisCache_LockRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newLockRedis()
	r := NewRedisCacheWithClient(rdb)

	ok, err := r.TryLock(ctx, "signal-scanner", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.TryLock(ctx, "signal-scanner", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Unlock(ctx, "signal-scanner"))
	_, held := rdb.get("chronosignal:lock:signal-scanner")
	assert.False(t, held)
}

func TestRedisCache_UnlockLeavesForeignLock(t *testing.T) {
	ctx := context.Background()
	rdb := newLockRedis()
	r := NewRedisCacheWithClient(rdb)

	ok, err := r.TryLock(ctx, "signal-scanner", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	rdb.expireAndSteal("chronosignal:lock:signal-scanner", "other-replica")

	err = r.Unlock(ctx, "signal-scanner")
	assert.ErrorIs(t, err, ErrLockNotHeld)
	v, held := rdb.get("chronosignal:lock:signal-scanner")
	assert.True(t, held)
	assert.Equal(t, "other-replica", v)
}

func TestRedisCache_UnlockWithoutLock(t *testing.T) {
	r := NewRedisCacheWithClient(newLockRedis())
	assert.ErrorIs(t, r.Unlock(context.Background(), "never-locked"), ErrLockNotHeld)
}
