package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/conf"
	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
	"flashlink/internal/metrics"
)

const (
	DefaultMaxRetries    = 3
	DefaultExpiry        = 30 * 24 * time.Hour
	DefaultBaseURL       = "http://localhost:8000"
	defaultRequestSource = "unknown"
)

// CreateLinkInput is the request to shorten a URL.
type CreateLinkInput struct {
	LongURL  string
	ExpiryAt *time.Time
	OwnerID  string
}

// LinkView is a link with its expiry state evaluated at read time.
type LinkView struct {
	*domain.ShortLink
	Expired bool
}

// LinkUsecase creates and resolves short links.
type LinkUsecase struct {
	repo     domain.LinkRepository
	ids      IDGenerator
	producer EventProducer
	limiter  RateLimiter
	metrics  *metrics.Metrics
	now      Clock
	log      *log.Helper

	baseURL       string
	defaultExpiry time.Duration
	maxRetries    int
}

// NewLinkUsecase creates a new link usecase.
func NewLinkUsecase(
	c *conf.Shortener,
	repo domain.LinkRepository,
	ids IDGenerator,
	producer EventProducer,
	limiter RateLimiter,
	m *metrics.Metrics,
	now Clock,
	logger log.Logger,
) *LinkUsecase {
	uc := &LinkUsecase{
		repo:          repo,
		ids:           ids,
		producer:      producer,
		limiter:       limiter,
		metrics:       m,
		now:           now,
		log:           log.NewHelper(log.With(logger, "module", "biz/link")),
		baseURL:       DefaultBaseURL,
		defaultExpiry: DefaultExpiry,
		maxRetries:    DefaultMaxRetries,
	}
	if c != nil {
		if c.BaseUrl != "" {
			uc.baseURL = strings.TrimRight(c.BaseUrl, "/")
		}
		if d := c.DefaultExpiry.AsDuration(); d > 0 {
			uc.defaultExpiry = d
		}
		if c.MaxRetries > 0 {
			uc.maxRetries = c.MaxRetries
		}
	}
	return uc
}

// Allow consumes one rate limit token of the client.
func (uc *LinkUsecase) Allow(ctx context.Context, clientID string) error {
	if clientID == "" {
		clientID = defaultRequestSource
	}
	if uc.limiter.IsAllowed(ctx, clientID) {
		return nil
	}
	uc.metrics.RateLimited.Inc()
	uc.log.WithContext(ctx).Infof("rate limited client %s", clientID)
	return domain.ErrRateLimited
}

// Create stores a new short link for the URL. A collision on the generated
// code is retried with a fresh id up to maxRetries times.
func (uc *LinkUsecase) Create(ctx context.Context, in CreateLinkInput) (*domain.ShortLink, error) {
	longURL, err := domain.NewLongURL(in.LongURL)
	if err != nil {
		return nil, domain.ErrInvalidURL
	}

	now := uc.now()
	if in.ExpiryAt != nil && !in.ExpiryAt.After(now) {
		return nil, domain.ErrInvalidExpiry
	}

	for attempt := 1; attempt <= uc.maxRetries; attempt++ {
		id, err := uc.ids.NextID()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}

		link, err := domain.NewShortLink(id, longURL, now, in.ExpiryAt, uc.defaultExpiry, in.OwnerID)
		if err != nil {
			return nil, err
		}

		exists, err := uc.repo.Exists(ctx, link.ShortCode)
		if err != nil {
			return nil, domain.ErrBackendUnavailable.WithCause(err)
		}
		if exists {
			uc.log.WithContext(ctx).Warnf("short code collision on %s, attempt %d/%d", link.ShortCode, attempt, uc.maxRetries)
			continue
		}

		if err := uc.repo.Save(ctx, link); err != nil {
			if errors.Is(err, domain.ErrShortCodeExists) {
				uc.log.WithContext(ctx).Warnf("short code %s taken concurrently, attempt %d/%d", link.ShortCode, attempt, uc.maxRetries)
				continue
			}
			return nil, domain.ErrBackendUnavailable.WithCause(err)
		}

		uc.producer.Publish(ctx, event.NewLinkCreated(link.ShortCode.String(), longURL.String(), in.OwnerID, now))
		uc.log.WithContext(ctx).Infof("created %s -> %s", link.ShortCode, longURL.Host())
		return link, nil
	}

	uc.log.WithContext(ctx).Errorf("no unique short code after %d attempts", uc.maxRetries)
	return nil, domain.ErrCollisionExhausted
}

// Resolve returns the live link behind a code and emits a redirect event.
// Unknown, malformed and expired codes all yield ErrLinkNotFound.
func (uc *LinkUsecase) Resolve(ctx context.Context, code string, info event.RequestInfo) (*domain.ShortLink, error) {
	link, err := uc.find(ctx, code)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if link.IsExpired(now) {
		return nil, domain.ErrLinkNotFound
	}

	uc.producer.Publish(ctx, event.NewRedirect(link.ShortCode.String(), link.LongURL.String(), info, now))
	return link, nil
}

// Expand returns a link, expired or not, without emitting events.
func (uc *LinkUsecase) Expand(ctx context.Context, code string) (*LinkView, error) {
	link, err := uc.find(ctx, code)
	if err != nil {
		return nil, err
	}
	return &LinkView{ShortLink: link, Expired: link.IsExpired(uc.now())}, nil
}

// Delete removes a link and emits a deleted event.
func (uc *LinkUsecase) Delete(ctx context.Context, code string) error {
	link, err := uc.find(ctx, code)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, link.ShortCode); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return domain.ErrLinkNotFound
		}
		return domain.ErrBackendUnavailable.WithCause(err)
	}

	uc.producer.Publish(ctx, event.NewLinkDeleted(link.ShortCode.String(), link.LongURL.String(), uc.now()))
	uc.log.WithContext(ctx).Infof("deleted %s", link.ShortCode)
	return nil
}

// ShortURL builds the public URL of a code.
func (uc *LinkUsecase) ShortURL(code string) string {
	return uc.baseURL + "/" + code
}

func (uc *LinkUsecase) find(ctx context.Context, code string) (*domain.ShortLink, error) {
	sc, err := domain.NewShortCode(code)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}
	link, err := uc.repo.FindByShortCode(ctx, sc)
	if err != nil {
		return nil, domain.ErrBackendUnavailable.WithCause(err)
	}
	if link == nil {
		return nil, domain.ErrLinkNotFound
	}
	return link, nil
}
