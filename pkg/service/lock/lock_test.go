package lock_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/meetlink/pkg/service/lock"
)

func runLockTest(t *testing.T, newLock func(t *testing.T) lock.Service) {
	t.Helper()

	t.Run("second acquire fails until release", func(t *testing.T) {
		svc := newLock(t)
		ctx := context.Background()
		key := fmt.Sprintf("sync-%d", time.Now().UnixNano())

		lease, err := svc.Acquire(ctx, key, time.Minute)
		gt.NoError(t, err).Required()

		_, err = svc.Acquire(ctx, key, time.Minute)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, lock.ErrLocked)).True()

		gt.NoError(t, lease.Release(ctx)).Required()

		again, err := svc.Acquire(ctx, key, time.Minute)
		gt.NoError(t, err).Required()
		gt.NoError(t, again.Release(ctx))
	})

	t.Run("expired lease can be taken over", func(t *testing.T) {
		svc := newLock(t)
		ctx := context.Background()
		key := fmt.Sprintf("sync-%d", time.Now().UnixNano())

		stale, err := svc.Acquire(ctx, key, 50*time.Millisecond)
		gt.NoError(t, err).Required()
		time.Sleep(100 * time.Millisecond)

		fresh, err := svc.Acquire(ctx, key, time.Minute)
		gt.NoError(t, err).Required()

		// the stale holder must not release the new lease
		gt.NoError(t, stale.Release(ctx))
		_, err = svc.Acquire(ctx, key, time.Minute)
		gt.Bool(t, errors.Is(err, lock.ErrLocked)).True()

		gt.NoError(t, fresh.Release(ctx))
	})
}

func TestMemoryLock(t *testing.T) {
	runLockTest(t, func(t *testing.T) lock.Service {
		return lock.NewMemory()
	})
}

func TestRedisLock(t *testing.T) {
	runLockTest(t, func(t *testing.T) lock.Service {
		addr := os.Getenv("TEST_REDIS_ADDR")
		if addr == "" {
			t.Skip("TEST_REDIS_ADDR not set")
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = client.Close() })
		return lock.NewRedis(client)
	})
}
