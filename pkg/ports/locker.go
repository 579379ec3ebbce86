package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes load-modify-save of one session across
// replicas that share a StateStore. In-process serialization is done by
// the session manager; a locker is only needed when several processes serve
// the same sessions.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock lapses after
	// ttl even if never released, so a crashed replica cannot wedge a
	// session. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
