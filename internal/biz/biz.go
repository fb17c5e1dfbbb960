package biz

import (
	"context"
	"time"

	"github.com/google/wire"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
	"flashlink/internal/infra/eventbus"
	"flashlink/internal/infra/idgen"
	"flashlink/internal/infra/ratelimit"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewClock,
	NewIDGenerator,
	NewRateLimiter,
	NewEventPublisher,
	NewLinkUsecase,
	NewAnalyticsProducer,
	wire.Bind(new(EventProducer), new(*AnalyticsProducer)),
	NewAnalyticsConsumer,
	NewExpiryReaper,
)

// Clock returns the current time.
type Clock func() time.Time

func NewClock() Clock {
	return time.Now
}

// IDGenerator hands out unique positive ids.
type IDGenerator interface {
	NextID() (int64, error)
}

func NewIDGenerator(c *conf.Shortener) (IDGenerator, error) {
	var node int64
	if c != nil {
		node = c.NodeId
	}
	g, err := idgen.NewGenerator(node)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// RateLimiter gates requests per client identifier.
type RateLimiter interface {
	IsAllowed(ctx context.Context, identifier string) bool
}

func NewRateLimiter(l ratelimit.Limiter) RateLimiter {
	return l
}

// EventPublisher appends events to the event log.
type EventPublisher interface {
	Publish(ctx context.Context, e event.AnalyticsEvent) error
}

func NewEventPublisher(bus *eventbus.EventBus) EventPublisher {
	return bus
}

// EventProducer accepts events without blocking and never fails the caller.
type EventProducer interface {
	Publish(ctx context.Context, e event.AnalyticsEvent)
}
