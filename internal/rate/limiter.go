// Package rate implementa rate limiting fixed-window, en Redis o en memoria.
package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// ─── Redis ───

// RedisLimiter: fixed window sencillo (INCR + EXPIRE). Compartido entre réplicas.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration

	now func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "soma:rl:"
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := l.now().UTC().Truncate(l.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	// set expiry on first hit
	if incr.Val() == 1 {
		_ = l.Client.Expire(ctx, redisKey, l.Window).Err()
		ttl = l.Client.TTL(ctx, redisKey)
	}

	res := evaluate(incr.Val(), l.Max, ttl.Val())
	if !res.Allowed && res.RetryAfter <= 0 {
		res.RetryAfter = time.Duration(math.Ceil(l.Window.Seconds())) * time.Second
	}
	return res, nil
}

// ─── Memoria ───

// MemoryLimiter es el fixed window por proceso, sobre go-cache.
// Sirve para una sola réplica o cuando no hay Redis.
type MemoryLimiter struct {
	counters *gocache.Cache
	max      int64
	window   time.Duration

	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counters: gocache.New(window, 2*window),
		max:      int64(max),
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	ttl := winStart.Add(l.window).Sub(now)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add falla si ya existe; en ese caso el Increment opera sobre el contador vigente.
	_ = l.counters.Add(k, int64(0), l.window)
	hits, err := l.counters.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate: increment %s: %w", key, err)
	}
	return evaluate(hits, l.max, ttl), nil
}

func evaluate(hits, max int64, ttl time.Duration) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl
	}
	return res
}

// Noop deja pasar todo; es el limiter cuando rate.enabled=false.
type Noop struct{}

func (Noop) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
