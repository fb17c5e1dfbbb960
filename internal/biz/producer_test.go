package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
	"flashlink/internal/metrics"
)

func startProducer(t *testing.T, p *AnalyticsProducer) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Start(context.Background()) }()
	return errCh
}

func TestAnalyticsProducer_PublishesInOrder(t *testing.T) {
	// Arrange
	pub := &fakePublisher{}
	p := NewAnalyticsProducer(nil, pub, metrics.NewForTest(), log.DefaultLogger)
	errCh := startProducer(t, p)

	// Act
	for i := 0; i < 20; i++ {
		p.Publish(context.Background(), event.NewRedirect(fmt.Sprintf("c%d", i), "https://example.com", event.RequestInfo{}, testNow))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	// Assert
	require.NoError(t, <-errCh)
	events := pub.Events()
	require.Len(t, events, 20)
	for i, e := range events {
		assert.Equal(t, fmt.Sprintf("c%d", i), e.ShortCode)
	}
}

func TestAnalyticsProducer_DropsWhenQueueFull(t *testing.T) {
	// Arrange
	pub := &fakePublisher{release: make(chan struct{})}
	m := metrics.NewForTest()
	p := NewAnalyticsProducer(&conf.Analytics{QueueSize: 2}, pub, m, log.DefaultLogger)

	// Act
	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), event.NewLinkExpired(fmt.Sprintf("c%d", i), testNow))
	}

	// Assert
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsDropped))

	errCh := startProducer(t, p)
	close(pub.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, <-errCh)
	assert.Len(t, pub.Events(), 2)
}

func TestAnalyticsProducer_PublishNeverBlocksCaller(t *testing.T) {
	pub := &fakePublisher{release: make(chan struct{})}
	p := NewAnalyticsProducer(&conf.Analytics{QueueSize: 1}, pub, metrics.NewForTest(), log.DefaultLogger)
	startProducer(t, p)
	defer close(pub.release)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Publish(context.Background(), event.NewLinkExpired("abc", testNow))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled event log")
	}
}

func TestAnalyticsProducer_PublishFailureIsCounted(t *testing.T) {
	// Arrange
	pub := &fakePublisher{err: errStore}
	m := metrics.NewForTest()
	p := NewAnalyticsProducer(nil, pub, m, log.DefaultLogger)
	errCh := startProducer(t, p)

	// Act
	p.Publish(context.Background(), event.NewLinkExpired("abc", testNow))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	// Assert
	require.NoError(t, <-errCh)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishFailures))
}

func TestAnalyticsProducer_CancelledRequestStillPublishes(t *testing.T) {
	pub := &fakePublisher{}
	p := NewAnalyticsProducer(nil, pub, metrics.NewForTest(), log.DefaultLogger)
	errCh := startProducer(t, p)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	p.Publish(reqCtx, event.NewLinkExpired("abc", testNow))
	cancelReq()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, <-errCh)
	assert.Len(t, pub.Events(), 1)
}

func TestAnalyticsProducer_PublishAfterStopIsDropped(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.NewForTest()
	p := NewAnalyticsProducer(nil, pub, m, log.DefaultLogger)
	errCh := startProducer(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, <-errCh)

	p.Publish(context.Background(), event.NewLinkExpired("abc", testNow))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDropped))
	assert.NoError(t, p.Stop(ctx))
}

func TestAnalyticsProducer_StopHonoursDeadline(t *testing.T) {
	pub := &fakePublisher{release: make(chan struct{})}
	p := NewAnalyticsProducer(nil, pub, metrics.NewForTest(), log.DefaultLogger)
	startProducer(t, p)
	defer close(pub.release)
	p.Publish(context.Background(), event.NewLinkExpired("abc", testNow))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyticsProducer_WaitsUntilReady(t *testing.T) {
	// Arrange
	pub := &fakePublisher{}
	ready := make(chan struct{})
	p := NewAnalyticsProducer(nil, pub, metrics.NewForTest(), log.DefaultLogger)
	p.WaitFor(ready)
	errCh := startProducer(t, p)

	// Act
	p.Publish(context.Background(), event.NewLinkExpired("early", testNow))
	time.Sleep(50 * time.Millisecond)
	held := len(pub.Events())
	close(ready)

	// Assert
	assert.Zero(t, held)
	assert.Eventually(t, func() bool { return len(pub.Events()) == 1 }, time.Second, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, <-errCh)
}

func TestAnalyticsProducer_StopWhileWaiting(t *testing.T) {
	pub := &fakePublisher{}
	p := NewAnalyticsProducer(nil, pub, metrics.NewForTest(), log.DefaultLogger)
	p.WaitFor(make(chan struct{}))
	errCh := startProducer(t, p)
	p.Publish(context.Background(), event.NewLinkExpired("queued", testNow))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	require.NoError(t, <-errCh)
	assert.Len(t, pub.Events(), 1)
}
