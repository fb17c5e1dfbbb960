// Package ratelimit implements a token bucket shared by every instance through
// a Redis Lua script.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"flashlink/internal/conf"
	"flashlink/internal/metrics"
)

// ProviderSet is ratelimit providers.
var ProviderSet = wire.NewSet(NewLimiter)

const (
	KeyPrefix = "rate_limit:"

	DefaultCapacity       = 10
	DefaultRefillRate     = 60
	DefaultRefillInterval = time.Minute
	DefaultTimeout        = 100 * time.Millisecond
)

// KEYS[1] bucket hash
// ARGV capacity, refill rate, refill interval in ms, now in ms
// Returns {allowed, remaining tokens}.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

local elapsed = math.max(0, now - last_refill)
local tokens_to_add = math.floor(elapsed / interval * rate)
-- last_refill moves only by the time the whole tokens represent, instead of
-- being reset to now on every call, so frequent callers still accrue tokens.
if tokens_to_add > 0 then
  tokens = math.min(capacity, tokens + tokens_to_add)
  last_refill = math.min(now, last_refill + math.floor(tokens_to_add * interval / rate))
end
if tokens >= capacity then
  last_refill = now
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('PEXPIRE', key, interval * 2)
return {allowed, tokens}
`

var script = redis.NewScript(tokenBucketScript)

// Limiter decides whether an identifier may proceed.
type Limiter interface {
	IsAllowed(ctx context.Context, identifier string) bool
}

// Config holds bucket parameters.
type Config struct {
	Capacity       int64
	RefillRate     int64
	RefillInterval time.Duration
	Timeout        time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.RefillRate <= 0 {
		c.RefillRate = DefaultRefillRate
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = DefaultRefillInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// ConfigFrom reads bucket parameters from the shortener config.
func ConfigFrom(c *conf.Shortener_RateLimit) Config {
	if c == nil {
		return Config{}.withDefaults()
	}
	return Config{
		Capacity:       c.Capacity,
		RefillRate:     c.RefillRate,
		RefillInterval: c.RefillInterval.AsDuration(),
		Timeout:        c.Timeout.AsDuration(),
	}.withDefaults()
}

// Option configures a RedisLimiter.
type Option func(*RedisLimiter)

// WithClock replaces the wall clock that stamps bucket refills.
func WithClock(now func() time.Time) Option {
	return func(l *RedisLimiter) { l.now = now }
}

// WithMetrics counts fail-open decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *RedisLimiter) { l.metrics = m }
}

// RedisLimiter fails open: store errors and timeouts allow the request.
type RedisLimiter struct {
	rdb     redis.Scripter
	cfg     Config
	now     func() time.Time
	metrics *metrics.Metrics
	log     *log.Helper
}

func NewRedisLimiter(rdb redis.Scripter, cfg Config, logger log.Logger, opts ...Option) *RedisLimiter {
	l := &RedisLimiter{
		rdb: rdb,
		cfg: cfg.withDefaults(),
		now: time.Now,
		log: log.NewHelper(log.With(logger, "module", "ratelimit")),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// IsAllowed consumes one token from the identifier's bucket.
func (l *RedisLimiter) IsAllowed(ctx context.Context, identifier string) bool {
	allowed, _, err := l.take(ctx, identifier)
	if err != nil {
		l.log.WithContext(ctx).Warnf("rate limit check failed for %s, allowing: %v", identifier, err)
		if l.metrics != nil {
			l.metrics.RateLimitFailOpen.Inc()
		}
		return true
	}
	return allowed
}

func (l *RedisLimiter) take(ctx context.Context, identifier string) (bool, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	res, err := script.Run(ctx, l.rdb, []string{KeyPrefix + identifier},
		l.cfg.Capacity,
		l.cfg.RefillRate,
		l.cfg.RefillInterval.Milliseconds(),
		l.now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	return res[0] == 1, res[1], nil
}

// AllowAll never limits.
type AllowAll struct{}

func (AllowAll) IsAllowed(context.Context, string) bool { return true }

// NewLimiter returns the Redis limiter. Without a Redis client it falls back
// to a per-instance LocalLimiter, and it returns AllowAll when disabled.
func NewLimiter(c *conf.Shortener, rdb redis.UniversalClient, m *metrics.Metrics, logger log.Logger) Limiter {
	helper := log.NewHelper(logger)
	if c == nil || c.RateLimit == nil || !c.RateLimit.Enabled {
		helper.Info("rate limiting disabled")
		return AllowAll{}
	}
	if rdb == nil {
		helper.Warn("rate limiting without redis, buckets are per instance")
		return NewLocalLimiter(ConfigFrom(c.RateLimit))
	}
	return NewRedisLimiter(rdb, ConfigFrom(c.RateLimit), logger, WithMetrics(m))
}
