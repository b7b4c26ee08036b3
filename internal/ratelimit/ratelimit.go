package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter shared by every instance through Redis.
type Limiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
}

func New(addr, pass string, db, limit int, window time.Duration) *Limiter {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	return &Limiter{Client: rdb, Limit: limit, Window: window}
}

// Allow counts one hit against key. Redis trouble fails open.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	k := "ratelimit:" + key
	count, err := l.Client.Incr(ctx, k).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		_ = l.Client.Expire(ctx, k, l.Window).Err()
	}
	return count <= int64(l.Limit)
}

func (l *Limiter) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

func (l *Limiter) Close() error {
	return l.Client.Close()
}
