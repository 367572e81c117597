package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned by Acquire when another holder owns the key
var ErrLocked = errors.New("lock is held by another process")

// Service serializes work across processes
type Service interface {
	// Acquire takes key for at most ttl. It does not wait: a held key returns ErrLocked.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is an acquired lock
type Lease interface {
	// Release gives the key back. Releasing an expired or foreign lease is a no-op.
	Release(ctx context.Context) error
}
