// Package throttle counts login attempts per account since its last
// successful login and refuses further attempts once a threshold is reached
// inside a window.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("throttle: backend unavailable")

type Limiter interface {
	// Attempt counts one login attempt for key and reports whether it may
	// proceed. Counting and checking happen in one step, so concurrent
	// attempts cannot overshoot the limit.
	Attempt(ctx context.Context, key string) (bool, error)
	// Reset forgets the attempts of key after a successful login.
	Reset(ctx context.Context, key string) error
}

type Config struct {
	MaxFailures int
	Window      time.Duration
}

type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewRedisLimiter(client redis.UniversalClient, cfg Config) (*RedisLimiter, error) {
	if cfg.MaxFailures < 1 {
		return nil, errors.New("throttle: max failures must be at least 1")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("throttle: window must be positive")
	}
	return &RedisLimiter{redis: client, config: cfg}, nil
}

func (l *RedisLimiter) key(k string) string {
	return "login_failures:" + k
}

// The first attempt opens the window; later ones do not extend it.
var attemptLua = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (l *RedisLimiter) Attempt(ctx context.Context, key string) (bool, error) {
	count, err := attemptLua.Run(ctx, l.redis, []string{l.key(key)}, l.config.Window.Milliseconds()).Int()
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count <= l.config.MaxFailures, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Nop never throttles.
type Nop struct{}

func (Nop) Attempt(context.Context, string) (bool, error) { return true, nil }
func (Nop) Reset(context.Context, string) error           { return nil }
