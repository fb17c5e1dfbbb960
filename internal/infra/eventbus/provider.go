package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"flashlink/internal/conf"
)

// ProviderSet is eventbus providers.
var ProviderSet = wire.NewSet(
	NewWatermillLogger,
	ProvideEventBus,
	NewRouter,
)

// ProvideEventBus creates the event log from the analytics section.
func ProvideEventBus(c *conf.Analytics, rdb redis.UniversalClient, wlogger watermill.LoggerAdapter, logger log.Logger) (*EventBus, func(), error) {
	bus, err := NewEventBus(ConfigFrom(c), rdb, wlogger)
	if err != nil {
		return nil, nil, err
	}
	helper := log.NewHelper(logger)
	helper.Infof("analytics event log: driver=%s topic=%s partitions=%d", bus.cfg.Driver, bus.cfg.Topic, bus.cfg.Partitions)
	cleanup := func() {
		if err := bus.Close(); err != nil {
			helper.Errorf("close event bus: %v", err)
		}
	}
	return bus, cleanup, nil
}
