package config

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/taekwondodev/go-account-service/internal/auth/throttle"
	"github.com/taekwondodev/go-account-service/internal/logging"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLimiter connects the login throttle to Redis. Without REDIS_ADDR the
// throttle is disabled. An unreachable Redis is logged, not fatal: the
// limiter fails open.
func NewLimiter(ctx context.Context, c RedisConfig, log logging.Logger) (throttle.Limiter, io.Closer, error) {
	if c.Addr == "" {
		log.Info(ctx, "login throttle disabled")
		return throttle.Nop{}, nopCloser{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	limiter, err := throttle.NewRedisLimiter(client, throttle.Config{
		MaxFailures: c.MaxFailures,
		Window:      c.LockoutWindow,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn(ctx, "redis unreachable, login throttle will fail open", "addr", c.Addr, "error", err)
	}

	return limiter, client, nil
}
