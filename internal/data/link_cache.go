package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"flashlink/internal/conf"
	"flashlink/internal/domain"
)

const (
	CacheDriverLocal = "local"
	CacheDriverRedis = "redis"

	linkCachePrefix = "link:"
	scanBatchSize   = 500
)

// Compile-time interface checks
var (
	_ domain.LinkCache = (*LocalLinkCache)(nil)
	_ domain.LinkCache = (*RedisLinkCache)(nil)
)

// NewLinkCache picks the cache driver. The redis driver falls back to the
// local cache when no Redis client is configured.
func NewLinkCache(c *conf.Data, rdb redis.UniversalClient, logger log.Logger) domain.LinkCache {
	driver := CacheDriverLocal
	if c != nil && c.Cache != nil && c.Cache.Driver != "" {
		driver = c.Cache.Driver
	}
	if driver == CacheDriverRedis {
		if rdb != nil {
			return NewRedisLinkCache(rdb, logger)
		}
		log.NewHelper(logger).Warn("cache driver redis without a redis client, using local cache")
	}
	return NewLocalLinkCache()
}

// LocalLinkCache keeps links in process memory without expiration.
type LocalLinkCache struct {
	c *gocache.Cache
}

func NewLocalLinkCache() *LocalLinkCache {
	return &LocalLinkCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func (l *LocalLinkCache) Get(_ context.Context, code domain.ShortCode) (*domain.ShortLink, error) {
	v, ok := l.c.Get(code.String())
	if !ok {
		return nil, nil
	}
	return v.(*domain.ShortLink).Clone(), nil
}

func (l *LocalLinkCache) Set(_ context.Context, link *domain.ShortLink) error {
	l.c.Set(link.ShortCode.String(), link.Clone(), gocache.NoExpiration)
	return nil
}

func (l *LocalLinkCache) InvalidateAll(context.Context) error {
	l.c.Flush()
	return nil
}

// Len reports the number of cached links.
func (l *LocalLinkCache) Len() int {
	return l.c.ItemCount()
}

// RedisLinkCache shares cached links between instances.
type RedisLinkCache struct {
	rdb redis.UniversalClient
	log *log.Helper
}

func NewRedisLinkCache(rdb redis.UniversalClient, logger log.Logger) *RedisLinkCache {
	return &RedisLinkCache{
		rdb: rdb,
		log: log.NewHelper(log.With(logger, "module", "data/cache")),
	}
}

// cachedLink is the serialization format for cached links.
type cachedLink struct {
	ID             int64             `json:"id"`
	ShortCode      string            `json:"short_code"`
	LongURL        string            `json:"long_url"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiryAt       *time.Time        `json:"expiry_at,omitempty"`
	TTLSeconds     *int64            `json:"ttl_seconds,omitempty"`
	OwnerID        string            `json:"owner_id,omitempty"`
	RedirectCount  int64             `json:"redirect_count"`
	LastRedirectAt *time.Time        `json:"last_redirect_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (c *RedisLinkCache) cacheKey(code string) string {
	return linkCachePrefix + code
}

// Get treats every failure as a miss.
func (c *RedisLinkCache) Get(ctx context.Context, code domain.ShortCode) (*domain.ShortLink, error) {
	data, err := c.rdb.Get(ctx, c.cacheKey(code.String())).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithContext(ctx).Warnf("Failed to get link from cache: %v", err)
		}
		return nil, nil
	}

	var cached cachedLink
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.WithContext(ctx).Warnf("Failed to unmarshal cached link: %v", err)
		return nil, nil
	}

	shortCode, err := domain.NewShortCode(cached.ShortCode)
	if err != nil {
		return nil, nil
	}
	longURL, err := domain.NewLongURL(cached.LongURL)
	if err != nil {
		return nil, nil
	}

	return &domain.ShortLink{
		ID:             cached.ID,
		ShortCode:      shortCode,
		LongURL:        longURL,
		CreatedAt:      cached.CreatedAt,
		ExpiryAt:       cached.ExpiryAt,
		TTLSeconds:     cached.TTLSeconds,
		OwnerID:        cached.OwnerID,
		RedirectCount:  cached.RedirectCount,
		LastRedirectAt: cached.LastRedirectAt,
		Metadata:       cached.Metadata,
	}, nil
}

// Set stores a link without TTL; entries live until the next InvalidateAll.
func (c *RedisLinkCache) Set(ctx context.Context, link *domain.ShortLink) error {
	data, err := json.Marshal(cachedLink{
		ID:             link.ID,
		ShortCode:      link.ShortCode.String(),
		LongURL:        link.LongURL.String(),
		CreatedAt:      link.CreatedAt,
		ExpiryAt:       link.ExpiryAt,
		TTLSeconds:     link.TTLSeconds,
		OwnerID:        link.OwnerID,
		RedirectCount:  link.RedirectCount,
		LastRedirectAt: link.LastRedirectAt,
		Metadata:       link.Metadata,
	})
	if err != nil {
		c.log.WithContext(ctx).Warnf("Failed to marshal link for cache: %v", err)
		return nil
	}

	if err := c.rdb.Set(ctx, c.cacheKey(link.ShortCode.String()), data, 0).Err(); err != nil {
		c.log.WithContext(ctx).Warnf("Failed to cache link: %v", err)
	}
	return nil
}

// InvalidateAll unlinks the whole link namespace in SCAN batches.
func (c *RedisLinkCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, linkCachePrefix+"*", scanBatchSize).Result()
		if err != nil {
			c.log.WithContext(ctx).Warnf("Failed to scan link cache: %v", err)
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Unlink(ctx, keys...).Err(); err != nil {
				c.log.WithContext(ctx).Warnf("Failed to invalidate link cache: %v", err)
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
