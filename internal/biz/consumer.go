package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
	"flashlink/internal/infra/enrichment"
	"flashlink/internal/metrics"
)

// AnalyticsConsumer folds analytics events into link counters and metrics.
// Delivery is at least once, so redirects may be counted more than once.
type AnalyticsConsumer struct {
	repo     domain.LinkRepository
	enricher *enrichment.Enricher
	metrics  *metrics.Metrics
	log      *log.Helper
}

func NewAnalyticsConsumer(repo domain.LinkRepository, enricher *enrichment.Enricher, m *metrics.Metrics, logger log.Logger) *AnalyticsConsumer {
	return &AnalyticsConsumer{
		repo:     repo,
		enricher: enricher,
		metrics:  m,
		log:      log.NewHelper(log.With(logger, "module", "biz/consumer")),
	}
}

func (c *AnalyticsConsumer) HandlerName() string {
	return "analytics_consumer"
}

// Handle applies one event. A returned error is logged by the router and the
// event is still acknowledged.
func (c *AnalyticsConsumer) Handle(ctx context.Context, e event.AnalyticsEvent) error {
	switch e.Type {
	case event.TypeRedirect:
		if err := c.handleRedirect(ctx, e); err != nil {
			return err
		}
	case event.TypeLinkCreated:
		c.metrics.LinksCreated.WithLabelValues(metrics.OwnerLabel(e.Metadata[event.MetadataOwnerID])).Inc()
	case event.TypeLinkExpired:
		c.metrics.LinksExpired.Inc()
	case event.TypeLinkDeleted:
		c.metrics.LinksDeleted.Inc()
	default:
		return fmt.Errorf("unhandled event type %s for %s", e.Type, e.ShortCode)
	}

	c.metrics.EventsProcessed.WithLabelValues(e.Type.String()).Inc()
	c.log.WithContext(ctx).Debugf("processed %s event %s for %s", e.Type, e.EventID, e.ShortCode)
	return nil
}

func (c *AnalyticsConsumer) handleRedirect(ctx context.Context, e event.AnalyticsEvent) error {
	code, err := domain.NewShortCode(e.ShortCode)
	if err != nil {
		return fmt.Errorf("redirect event %s: %w", e.EventID, err)
	}
	err = c.repo.RecordRedirect(ctx, code, e.Timestamp)
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		// Link was reaped or deleted after the redirect.
		c.log.WithContext(ctx).Infof("redirect for missing link %s ignored", e.ShortCode)
	case err != nil:
		return fmt.Errorf("record redirect for %s: %w", e.ShortCode, err)
	default:
		c.metrics.RedirectsProcessed.Inc()
		attrs := c.enricher.Enrich(e)
		c.metrics.RedirectsBySource.WithLabelValues(attrs.Source, attrs.Device, attrs.Country).Inc()
	}
	return nil
}
