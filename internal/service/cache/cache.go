package cache

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotHeld is returned by Unlock when the lock expired or belongs to
// another holder.
var ErrLockNotHeld = errors.New("lock not held")

// BytesCache stores raw bytes with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Locker is a best-effort mutual exclusion keyed by name, held for at most ttl.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Store is a cache that can also hand out locks.
type Store interface {
	BytesCache
	Locker
}
