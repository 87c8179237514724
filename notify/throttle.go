package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle gates alerts with SetNX: the first caller in each window
// wins, everyone else is told no.
type RedisThrottle struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisThrottle(rdb *redis.Client, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string) bool {
	ok, err := t.rdb.SetNX(ctx, "alert:"+key, "1", t.window).Result()
	if err != nil {
		// Redis being down should not silence alerts.
		return true
	}
	return ok
}

// OpenThrottle always allows; used in tests and when redis is not wired.
type OpenThrottle struct{}

func (OpenThrottle) Allow(context.Context, string) bool { return true }
