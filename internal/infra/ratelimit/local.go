package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per identifier in process memory.
// Buckets refill continuously rather than in whole intervals and are not
// shared between instances. Idle buckets are evicted after two intervals,
// which leaves them full, matching the Redis key expiry.
type LocalLimiter struct {
	cfg     Config
	limit   rate.Limit
	mu      sync.Mutex
	buckets *cache.Cache
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	cfg = cfg.withDefaults()
	idle := 2 * cfg.RefillInterval
	return &LocalLimiter{
		cfg:     cfg,
		limit:   rate.Every(cfg.RefillInterval / time.Duration(cfg.RefillRate)),
		buckets: cache.New(idle, idle),
	}
}

func (l *LocalLimiter) IsAllowed(_ context.Context, identifier string) bool {
	return l.bucket(identifier).Allow()
}

func (l *LocalLimiter) bucket(identifier string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets.Get(identifier); ok {
		limiter := b.(*rate.Limiter)
		l.buckets.SetDefault(identifier, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, int(l.cfg.Capacity))
	l.buckets.SetDefault(identifier, limiter)
	return limiter
}
