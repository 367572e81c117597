package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type memoryLock struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	nowFn func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// NewMemory creates a lock service local to the process
func NewMemory() Service {
	return &memoryLock{
		held:  make(map[string]memoryEntry),
		nowFn: time.Now,
	}
}

func (l *memoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return nil, goerr.Wrap(ErrLocked, "lock already held", goerr.V("key", key))
	}

	token := uuid.NewString()
	l.held[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return &memoryLease{owner: l, key: key, token: token}, nil
}

type memoryLease struct {
	owner *memoryLock
	key   string
	token string
}

func (l *memoryLease) Release(ctx context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if e, ok := l.owner.held[l.key]; ok && e.token == l.token {
		delete(l.owner.held, l.key)
	}
	return nil
}
