package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates exclusive access to a key across replicas.
// The draft manager uses it so two instances never save the same draft at once.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The returned UnlockFunc MUST be called to release it; the lock expires after ttl otherwise.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
