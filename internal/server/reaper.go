package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"flashlink/internal/biz"
	"flashlink/internal/conf"
)

// DefaultReaperInterval is the sweep period when none is configured.
const DefaultReaperInterval = time.Hour

// ReaperServer runs expiry sweeps on a ticker.
type ReaperServer struct {
	reaper   *biz.ExpiryReaper
	now      biz.Clock
	interval time.Duration
	enabled  bool
	log      *log.Helper

	stop chan struct{}
	done chan struct{}
}

func NewReaperServer(c *conf.Shortener, reaper *biz.ExpiryReaper, now biz.Clock, logger log.Logger) *ReaperServer {
	s := &ReaperServer{
		reaper:   reaper,
		now:      now,
		interval: DefaultReaperInterval,
		enabled:  true,
		log:      log.NewHelper(log.With(logger, "module", "server/reaper")),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if c != nil && c.Reaper != nil {
		s.enabled = c.Reaper.Enabled
		if d := c.Reaper.Interval.AsDuration(); d > 0 {
			s.interval = d
		}
	}
	return s
}

// Start sweeps once per interval until Stop. Sweep failures are logged and
// the next tick tries again.
func (s *ReaperServer) Start(ctx context.Context) error {
	defer close(s.done)
	if !s.enabled {
		s.log.Info("expiry reaper disabled")
		<-s.stop
		return nil
	}

	s.log.Infof("expiry reaper running every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.reaper.Sweep(ctx, s.now()); err != nil {
				s.log.Warnf("sweep failed, retrying next tick: %v", err)
			}
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *ReaperServer) Stop(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
