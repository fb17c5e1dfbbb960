package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"flashlink/internal/domain/event"
)

// EventHandler consumes analytics events.
type EventHandler interface {
	// HandlerName returns the name of the handler.
	HandlerName() string
	// Handle applies one event. Errors are logged and the message is acked anyway.
	Handle(ctx context.Context, e event.AnalyticsEvent) error
}

// Router fans every partition topic into the registered handlers. Each
// partition is consumed by its own handler instance, so events for one short
// code are applied in publish order.
type Router struct {
	inner *message.Router
	bus   *EventBus
	log   watermill.LoggerAdapter
}

// NewRouter builds a router with ack-on-error and panic recovery installed.
func NewRouter(bus *EventBus, logger watermill.LoggerAdapter) (*Router, error) {
	inner, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}
	r := &Router{inner: inner, bus: bus, log: logger}
	inner.AddMiddleware(r.ackOnError, middleware.Recoverer)
	return r, nil
}

// AddHandler subscribes the handler to every partition.
func (r *Router) AddHandler(h EventHandler) {
	for i, topic := range r.bus.Topics() {
		name := fmt.Sprintf("%s.%d", h.HandlerName(), i)
		r.inner.AddNoPublisherHandler(name, topic, r.bus.Subscriber(), dispatch(h))
	}
}

func dispatch(h EventHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		e, err := MessageToEvent(msg)
		if err != nil {
			return fmt.Errorf("decode %s: %w", msg.UUID, err)
		}
		if err := h.Handle(msg.Context(), e); err != nil {
			return fmt.Errorf("%s: %s %s: %w", h.HandlerName(), e.Type, e.EventID, err)
		}
		return nil
	}
}

// ackOnError logs a failed event and acks it so the partition keeps moving.
func (r *Router) ackOnError(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := next(msg)
		if err == nil {
			return out, nil
		}
		r.log.Error("analytics event dropped after handler error", err, watermill.LogFields{
			"message_uuid":  msg.UUID,
			"partition_key": msg.Metadata.Get(MetadataPartitionKey),
			"event_type":    msg.Metadata.Get(MetadataEventType),
		})
		return nil, nil
	}
}

// Run blocks until ctx is done or Close is called.
func (r *Router) Run(ctx context.Context) error { return r.inner.Run(ctx) }

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} { return r.inner.Running() }

func (r *Router) Close() error { return r.inner.Close() }
