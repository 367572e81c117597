package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/meetlink/pkg/service/lock"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Lock holds the configuration of the sync run lock
type Lock struct {
	redisAddr     string
	redisPassword string
	redisDB       int
	ttl           time.Duration
}

func (x *Lock) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address for the distributed sync lock (host:port). In-process lock when empty",
			Category:    "Lock",
			Sources:     cli.EnvVars("MEETLINK_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Category:    "Lock",
			Sources:     cli.EnvVars("MEETLINK_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Category:    "Lock",
			Sources:     cli.EnvVars("MEETLINK_REDIS_DB"),
			Destination: &x.redisDB,
		},
		&cli.DurationFlag{
			Name:        "lock-ttl",
			Usage:       "Expiry of the sync lock",
			Category:    "Lock",
			Value:       usecase.DefaultLockTTL,
			Sources:     cli.EnvVars("MEETLINK_LOCK_TTL"),
			Destination: &x.ttl,
		},
	}
}

func (x Lock) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("redis_addr", x.redisAddr),
		slog.Int("redis_db", x.redisDB),
		slog.Duration("ttl", x.ttl),
	)
}

// TTL returns the lock expiry
func (x *Lock) TTL() time.Duration {
	return x.ttl
}

// Configure creates the lock service and a closer for the underlying connection.
func (x *Lock) Configure(ctx context.Context) (lock.Service, func(), error) {
	if x.redisAddr == "" {
		logging.Default().Info("Using in-process sync lock")
		return lock.NewMemory(), func() {}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{x.redisAddr},
		Password: x.redisPassword,
		DB:       x.redisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", x.redisAddr))
	}

	logging.Default().Info("Using Redis sync lock", "addr", x.redisAddr)
	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Warn("failed to close redis client", "error", err)
		}
	}
	return lock.NewRedis(client), closer, nil
}
