package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/biz"
	"flashlink/internal/infra/eventbus"
)

// ConsumerServer runs the analytics consumer router as a kratos server.
type ConsumerServer struct {
	router *eventbus.Router
	log    *log.Helper
}

// NewConsumerServer subscribes the consumer and holds the producer back until
// the router is running.
func NewConsumerServer(router *eventbus.Router, consumer *biz.AnalyticsConsumer, producer *biz.AnalyticsProducer, logger log.Logger) *ConsumerServer {
	router.AddHandler(consumer)
	producer.WaitFor(router.Running())
	return &ConsumerServer{
		router: router,
		log:    log.NewHelper(log.With(logger, "module", "server/consumer")),
	}
}

// Start blocks until the router is closed.
func (s *ConsumerServer) Start(ctx context.Context) error {
	s.log.Info("analytics consumer starting")
	return s.router.Run(ctx)
}

func (s *ConsumerServer) Stop(context.Context) error {
	s.log.Info("analytics consumer stopping")
	return s.router.Close()
}
