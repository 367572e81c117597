package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "meetlink:lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLock struct {
	client redis.UniversalClient
}

// NewRedis creates a lock service on a Redis server
func NewRedis(client redis.UniversalClient) Service {
	return &redisLock{client: client}
}

func (l *redisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to acquire redis lock", goerr.V("key", key))
	}
	if !ok {
		return nil, goerr.Wrap(ErrLocked, "lock already held", goerr.V("key", key))
	}
	return &redisLease{client: l.client, key: keyPrefix + key, token: token}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return goerr.Wrap(err, "failed to release redis lock", goerr.V("key", l.key))
	}
	return nil
}
