package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
	"flashlink/internal/metrics"
)

// ExpiryReaper removes expired links and announces each removal.
type ExpiryReaper struct {
	repo     domain.LinkRepository
	producer EventProducer
	metrics  *metrics.Metrics
	log      *log.Helper
}

func NewExpiryReaper(repo domain.LinkRepository, producer EventProducer, m *metrics.Metrics, logger log.Logger) *ExpiryReaper {
	return &ExpiryReaper{
		repo:     repo,
		producer: producer,
		metrics:  m,
		log:      log.NewHelper(log.With(logger, "module", "biz/reaper")),
	}
}

// Sweep deletes every link expired at now and returns how many were removed.
// A link expiring exactly at now is removed.
func (r *ExpiryReaper) Sweep(ctx context.Context, now time.Time) (int, error) {
	codes, err := r.repo.DeleteExpired(ctx, now)
	if err != nil {
		r.metrics.ExpirySweeps.WithLabelValues("error").Inc()
		r.log.WithContext(ctx).Errorf("expiry sweep failed: %v", err)
		return 0, domain.ErrBackendUnavailable.WithCause(err)
	}

	for _, code := range codes {
		r.producer.Publish(ctx, event.NewLinkExpired(code.String(), now))
	}

	r.metrics.ExpirySweeps.WithLabelValues("ok").Inc()
	if len(codes) > 0 {
		r.log.WithContext(ctx).Infof("expiry sweep removed %d links", len(codes))
	}
	return len(codes), nil
}
