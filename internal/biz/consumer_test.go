package biz

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
	"flashlink/internal/infra/enrichment"
	"flashlink/internal/metrics"
	"flashlink/internal/mocks"
)

type AnalyticsConsumerTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *mocks.LinkRepository
	metrics *metrics.Metrics
	sut     *AnalyticsConsumer
}

func TestAnalyticsConsumerTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsConsumerTestSuite))
}

func (s *AnalyticsConsumerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = mocks.NewLinkRepository(s.T())
	s.metrics = metrics.NewForTest()
	s.sut = NewAnalyticsConsumer(s.repo, enrichment.New(nil), s.metrics, log.DefaultLogger)
}

func (s *AnalyticsConsumerTestSuite) TestRedirectIncrementsCounter() {
	// Arrange
	at := testNow.Add(time.Second)
	code, _ := domain.NewShortCode("abc123")
	s.repo.On("RecordRedirect", mock.Anything, code, at).Return(nil).Once()

	// Act
	err := s.sut.Handle(s.ctx, event.NewRedirect("abc123", "https://example.com", event.RequestInfo{
		ClientIP: "198.51.100.1",
		Referer:  "https://www.google.com/search?q=flashlink",
	}, at))

	// Assert
	s.NoError(err)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RedirectsProcessed))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RedirectsBySource.WithLabelValues(
		enrichment.SourceSearch, enrichment.DeviceUnknown, enrichment.CountryUnknown)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.EventsProcessed.WithLabelValues("REDIRECT")))
}

func (s *AnalyticsConsumerTestSuite) TestRedirectForMissingLinkIsIgnored() {
	s.repo.On("RecordRedirect", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrLinkNotFound).Once()

	err := s.sut.Handle(s.ctx, event.NewRedirect("gone", "https://example.com", event.RequestInfo{}, testNow))

	s.NoError(err)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.RedirectsProcessed))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.EventsProcessed.WithLabelValues("REDIRECT")))
}

func (s *AnalyticsConsumerTestSuite) TestRedirectStoreFailureIsReturned() {
	s.repo.On("RecordRedirect", mock.Anything, mock.Anything, mock.Anything).Return(errStore).Once()

	err := s.sut.Handle(s.ctx, event.NewRedirect("abc", "https://example.com", event.RequestInfo{}, testNow))

	s.ErrorIs(err, errStore)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.EventsProcessed.WithLabelValues("REDIRECT")))
}

func (s *AnalyticsConsumerTestSuite) TestRedirectWithMalformedCode() {
	err := s.sut.Handle(s.ctx, event.NewRedirect("not valid", "https://example.com", event.RequestInfo{}, testNow))

	s.Error(err)
	s.repo.AssertNotCalled(s.T(), "RecordRedirect", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AnalyticsConsumerTestSuite) TestLifecycleEventsUpdateMetrics() {
	// Act
	s.NoError(s.sut.Handle(s.ctx, event.NewLinkCreated("a1", "https://example.com", "owner-1", testNow)))
	s.NoError(s.sut.Handle(s.ctx, event.NewLinkCreated("a2", "https://example.com", "", testNow)))
	s.NoError(s.sut.Handle(s.ctx, event.NewLinkCreated("a3", "https://example.com", "owner-2", testNow)))
	s.NoError(s.sut.Handle(s.ctx, event.NewLinkExpired("a1", testNow)))
	s.NoError(s.sut.Handle(s.ctx, event.NewLinkDeleted("a2", "https://example.com", testNow)))

	// Assert
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.LinksCreated.WithLabelValues(metrics.IdentifiedOwner)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.LinksCreated.WithLabelValues(metrics.AnonymousOwner)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.LinksExpired))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.LinksDeleted))
	s.Equal(2, testutil.CollectAndCount(s.metrics.LinksCreated))
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.EventsProcessed.WithLabelValues("LINK_CREATED")))
}

func (s *AnalyticsConsumerTestSuite) TestUnknownTypeIsRejected() {
	err := s.sut.Handle(s.ctx, event.AnalyticsEvent{EventID: "1", ShortCode: "abc"})

	s.Error(err)
}

func (s *AnalyticsConsumerTestSuite) TestRedeliveryCountsTwice() {
	e := event.NewRedirect("abc", "https://example.com", event.RequestInfo{}, testNow)
	s.repo.On("RecordRedirect", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	s.NoError(s.sut.Handle(s.ctx, e))
	s.NoError(s.sut.Handle(s.ctx, e))

	s.Equal(float64(2), testutil.ToFloat64(s.metrics.RedirectsProcessed))
}
