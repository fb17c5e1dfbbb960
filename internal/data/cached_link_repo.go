package data

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/domain"
	"flashlink/internal/metrics"
)

// Compile-time interface check
var _ domain.LinkRepository = (*CachedLinkRepository)(nil)

// CachedLinkRepository wraps a LinkRepository with a read-through cache.
// Every successful Save and Delete drops the whole cache.
type CachedLinkRepository struct {
	repo    domain.LinkRepository
	cache   domain.LinkCache
	metrics *metrics.Metrics
	log     *log.Helper
}

// NewCachedLinkRepository creates a new cached repository wrapper.
func NewCachedLinkRepository(repo *LinkRepo, cache domain.LinkCache, m *metrics.Metrics, logger log.Logger) domain.LinkRepository {
	return WrapWithCache(repo, cache, m, logger)
}

// WrapWithCache decorates any repository.
func WrapWithCache(repo domain.LinkRepository, cache domain.LinkCache, m *metrics.Metrics, logger log.Logger) *CachedLinkRepository {
	return &CachedLinkRepository{
		repo:    repo,
		cache:   cache,
		metrics: m,
		log:     log.NewHelper(log.With(logger, "module", "data/cached_link")),
	}
}

// Exists is not cached so collision checks see the store.
func (r *CachedLinkRepository) Exists(ctx context.Context, code domain.ShortCode) (bool, error) {
	return r.repo.Exists(ctx, code)
}

// Save persists a link and invalidates the cache.
func (r *CachedLinkRepository) Save(ctx context.Context, link *domain.ShortLink) error {
	if err := r.repo.Save(ctx, link); err != nil {
		return err
	}
	r.invalidateAll(ctx)
	return nil
}

// FindByShortCode checks the cache first and fills it on a miss.
func (r *CachedLinkRepository) FindByShortCode(ctx context.Context, code domain.ShortCode) (*domain.ShortLink, error) {
	if cached, err := r.cache.Get(ctx, code); err == nil && cached != nil {
		r.metrics.CacheHit.Inc()
		return cached, nil
	} else if err != nil {
		r.log.WithContext(ctx).Warnf("cache get %s: %v", code, err)
	}
	r.metrics.CacheMiss.Inc()

	link, err := r.repo.FindByShortCode(ctx, code)
	if err != nil || link == nil {
		return link, err
	}

	if err := r.cache.Set(ctx, link); err != nil {
		r.log.WithContext(ctx).Warnf("cache set %s: %v", code, err)
	}
	return link, nil
}

// RecordRedirect leaves cached counters stale until the next invalidation.
func (r *CachedLinkRepository) RecordRedirect(ctx context.Context, code domain.ShortCode, at time.Time) error {
	return r.repo.RecordRedirect(ctx, code, at)
}

// Delete removes a link and invalidates the cache.
func (r *CachedLinkRepository) Delete(ctx context.Context, code domain.ShortCode) error {
	if err := r.repo.Delete(ctx, code); err != nil {
		return err
	}
	r.invalidateAll(ctx)
	return nil
}

// DeleteExpired does not touch the cache; Resolve filters expired entries.
func (r *CachedLinkRepository) DeleteExpired(ctx context.Context, now time.Time) ([]domain.ShortCode, error) {
	return r.repo.DeleteExpired(ctx, now)
}

func (r *CachedLinkRepository) invalidateAll(ctx context.Context) {
	if err := r.cache.InvalidateAll(ctx); err != nil {
		r.log.WithContext(ctx).Warnf("cache invalidate: %v", err)
	}
}
