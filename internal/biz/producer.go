package biz

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
	"flashlink/internal/metrics"
)

// DefaultQueueSize bounds the events waiting to be published.
const DefaultQueueSize = 1024

type queuedEvent struct {
	ctx   context.Context
	event event.AnalyticsEvent
}

// AnalyticsProducer hands events to the event log off the request path.
// Publish never blocks: a full queue drops the event. A single worker keeps
// the publish order of the request path.
type AnalyticsProducer struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *log.Helper

	queue    chan queuedEvent
	ready    <-chan struct{}
	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAnalyticsProducer creates a producer. It must be started to publish.
func NewAnalyticsProducer(c *conf.Analytics, publisher EventPublisher, m *metrics.Metrics, logger log.Logger) *AnalyticsProducer {
	size := DefaultQueueSize
	if c != nil && c.QueueSize > 0 {
		size = c.QueueSize
	}
	return &AnalyticsProducer{
		publisher: publisher,
		metrics:   m,
		log:       log.NewHelper(log.With(logger, "module", "biz/producer")),
		queue:     make(chan queuedEvent, size),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// WaitFor holds the worker back until ready is closed, so events queued at
// startup are not published before the consumer has subscribed. It must be
// called before Start.
func (p *AnalyticsProducer) WaitFor(ready <-chan struct{}) {
	p.ready = ready
}

// Publish enqueues an event. The caller's cancellation does not reach the
// publish.
func (p *AnalyticsProducer) Publish(ctx context.Context, e event.AnalyticsEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop(e, "producer stopped")
		return
	}
	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		p.drop(e, "queue full")
	}
}

func (p *AnalyticsProducer) drop(e event.AnalyticsEvent, reason string) {
	p.metrics.EventsDropped.Inc()
	p.log.Warnf("dropped %s event %s for %s: %s", e.Type, e.EventID, e.ShortCode, reason)
}

// Start runs the publish worker until Stop drains the queue.
func (p *AnalyticsProducer) Start(ctx context.Context) error {
	defer close(p.done)
	if p.ready != nil {
		select {
		case <-p.ready:
		case <-p.stopping:
		case <-ctx.Done():
		}
	}
	for qe := range p.queue {
		if err := p.publisher.Publish(qe.ctx, qe.event); err != nil {
			p.metrics.PublishFailures.Inc()
			p.log.WithContext(qe.ctx).Errorf("publish %s event %s for %s: %v", qe.event.Type, qe.event.EventID, qe.event.ShortCode, err)
		}
	}
	return nil
}

// Stop closes the queue and waits for queued events to be published or for
// ctx to end.
func (p *AnalyticsProducer) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.stopping)
		close(p.queue)
		p.mu.Unlock()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.log.Warnf("stopped with %d events unpublished", len(p.queue))
		return ctx.Err()
	}
}
