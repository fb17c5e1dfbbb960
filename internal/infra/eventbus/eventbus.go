package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
)

const (
	DriverGoChannel = "gochannel"
	DriverRedis     = "redis"

	DefaultTopic         = "analytics.events"
	DefaultPartitions    = 8
	DefaultConsumerGroup = "url-service-analytics"
	// DefaultStreamMaxLen caps each Redis partition stream (approximate trim).
	DefaultStreamMaxLen = 100_000

	MetadataPartitionKey = "partition_key"
	MetadataEventType    = "event_type"
)

// Config selects the event log backend and its partitioning.
type Config struct {
	Driver        string
	Topic         string
	Partitions    int
	ConsumerGroup string
	// Consumer names this process inside the consumer group.
	Consumer string
	// Buffer is the gochannel output buffer.
	Buffer int64
	// StreamMaxLen caps every Redis partition stream.
	StreamMaxLen int64
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverGoChannel
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.Partitions <= 0 {
		c.Partitions = DefaultPartitions
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = DefaultConsumerGroup
	}
	if c.Consumer == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = watermill.NewShortUUID()
		}
		c.Consumer = host
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.StreamMaxLen <= 0 {
		c.StreamMaxLen = DefaultStreamMaxLen
	}
	return c
}

// ConfigFrom reads the analytics section.
func ConfigFrom(c *conf.Analytics) Config {
	if c == nil {
		return Config{}.withDefaults()
	}
	return Config{
		Driver:        c.Driver,
		Topic:         c.Topic,
		Partitions:    c.Partitions,
		ConsumerGroup: c.ConsumerGroup,
		Buffer:        int64(c.QueueSize),
		StreamMaxLen:  c.StreamMaxlen,
	}.withDefaults()
}

// EventBus is a partitioned analytics event log. Events of one short code
// always land on the same partition topic, which keeps their relative order.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	// shared is set when one value serves both sides.
	shared bool
	cfg    Config
	logger watermill.LoggerAdapter
}

// NewEventBus creates the event log for the configured driver.
func NewEventBus(cfg Config, rdb redis.UniversalClient, logger watermill.LoggerAdapter) (*EventBus, error) {
	cfg = cfg.withDefaults()

	switch cfg.Driver {
	case DriverGoChannel:
		pubsub := gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: cfg.Buffer,
				// Acked messages are released. Publishes with no subscriber are
				// lost, so the producer waits for the router before publishing.
				Persistent: false,
				// Without it gochannel delivers each message on its own goroutine.
				BlockPublishUntilSubscriberAck: true,
			},
			logger,
		)
		return &EventBus{publisher: pubsub, subscriber: pubsub, shared: true, cfg: cfg, logger: logger}, nil

	case DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("eventbus: driver %q requires a redis client", cfg.Driver)
		}
		maxlens := make(map[string]int64, cfg.Partitions)
		for p := 0; p < cfg.Partitions; p++ {
			maxlens[PartitionTopic(cfg.Topic, p)] = cfg.StreamMaxLen
		}
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     rdb,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			Maxlens:    maxlens,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("eventbus: create publisher: %w", err)
		}
		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        rdb,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: cfg.ConsumerGroup,
			Consumer:      cfg.Consumer,
		}, logger)
		if err != nil {
			_ = publisher.Close()
			return nil, fmt.Errorf("eventbus: create subscriber: %w", err)
		}
		return &EventBus{publisher: publisher, subscriber: subscriber, cfg: cfg, logger: logger}, nil

	default:
		return nil, fmt.Errorf("eventbus: unknown driver %q", cfg.Driver)
	}
}

// Publisher returns the Watermill publisher.
func (b *EventBus) Publisher() message.Publisher {
	return b.publisher
}

// Subscriber returns the Watermill subscriber.
func (b *EventBus) Subscriber() message.Subscriber {
	return b.subscriber
}

// Config returns the effective configuration.
func (b *EventBus) Config() Config {
	return b.cfg
}

// Partition maps a short code onto [0, Partitions).
func (b *EventBus) Partition(shortCode string) int {
	return int(xxhash.Sum64String(shortCode) % uint64(b.cfg.Partitions))
}

// TopicFor returns the partition topic of a short code.
func (b *EventBus) TopicFor(shortCode string) string {
	return PartitionTopic(b.cfg.Topic, b.Partition(shortCode))
}

// Topics lists every partition topic.
func (b *EventBus) Topics() []string {
	topics := make([]string, b.cfg.Partitions)
	for i := range topics {
		topics[i] = PartitionTopic(b.cfg.Topic, i)
	}
	return topics
}

// PartitionTopic names partition p of topic.
func PartitionTopic(topic string, p int) string {
	return fmt.Sprintf("%s.%d", topic, p)
}

// Publish appends an event to its partition.
func (b *EventBus) Publish(ctx context.Context, e event.AnalyticsEvent) error {
	msg, err := EventToMessage(e)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return b.publisher.Publish(b.TopicFor(e.ShortCode), msg)
}

// Close closes the publisher and the subscriber.
func (b *EventBus) Close() error {
	err := b.publisher.Close()
	if b.shared {
		return err
	}
	if serr := b.subscriber.Close(); err == nil {
		err = serr
	}
	return err
}

// EventEnvelope wraps an analytics event for the wire.
type EventEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ShortCode  string          `json:"short_code"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventToMessage converts an analytics event to a Watermill message.
func EventToMessage(e event.AnalyticsEvent) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	envelope := EventEnvelope{
		EventID:    e.EventID,
		EventType:  e.Type.String(),
		ShortCode:  e.ShortCode,
		OccurredAt: e.Timestamp,
		Payload:    payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(e.EventID, data)
	msg.Metadata.Set(MetadataPartitionKey, e.ShortCode)
	msg.Metadata.Set(MetadataEventType, e.Type.String())

	return msg, nil
}

// MessageToEvent decodes a Watermill message back into an analytics event.
func MessageToEvent(msg *message.Message) (event.AnalyticsEvent, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return event.AnalyticsEvent{}, fmt.Errorf("decode envelope: %w", err)
	}
	var e event.AnalyticsEvent
	if err := json.Unmarshal(envelope.Payload, &e); err != nil {
		return event.AnalyticsEvent{}, fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}
	return e, nil
}
