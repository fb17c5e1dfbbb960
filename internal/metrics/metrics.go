// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderSet is metrics providers.
var ProviderSet = wire.NewSet(NewRegistry, New)

const namespace = "flashlink"

// Values of the owner label. Owner ids are client supplied, so they are
// never used as label values.
const (
	AnonymousOwner  = "anonymous"
	IdentifiedOwner = "identified"
)

type Metrics struct {
	EventsProcessed    *prometheus.CounterVec
	RedirectsProcessed prometheus.Counter
	RedirectsBySource  *prometheus.CounterVec
	LinksCreated       *prometheus.CounterVec
	LinksExpired       prometheus.Counter
	LinksDeleted       prometheus.Counter
	EventsDropped      prometheus.Counter
	PublishFailures    prometheus.Counter
	RateLimited        prometheus.Counter
	RateLimitFailOpen  prometheus.Counter
	CacheHit           prometheus.Counter
	CacheMiss          prometheus.Counter
	ExpirySweeps       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry returns a registry with the process and Go collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_processed_total",
			Help:      "Analytics events applied by the consumer, by type.",
		}, []string{"type"}),
		RedirectsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_processed_total",
			Help:      "Redirect events folded into link counters.",
		}),
		RedirectsBySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_by_source_total",
			Help:      "Recorded redirects by traffic source, device class and country.",
		}, []string{"source", "device", "country"}),
		LinksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Links created, by owner.",
		}, []string{"owner"}),
		LinksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_expired_total",
			Help:      "Links removed by the expiry reaper.",
		}),
		LinksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_deleted_total",
			Help:      "Links deleted explicitly.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_dropped_total",
			Help:      "Analytics events dropped because the producer queue was full.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_publish_failures_total",
			Help:      "Analytics events the event log rejected.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		RateLimitFailOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_fail_open_total",
			Help:      "Rate limit checks allowed because the limiter store failed.",
		}),
		CacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hit_total",
			Help:      "Link cache hits.",
		}),
		CacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_miss_total",
			Help:      "Link cache misses.",
		}),
		ExpirySweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_sweeps_total",
			Help:      "Expiry sweeps, by result.",
		}, []string{"result"}),
		registry: reg,
	}
	reg.MustRegister(
		m.EventsProcessed, m.RedirectsProcessed, m.RedirectsBySource, m.LinksCreated, m.LinksExpired, m.LinksDeleted,
		m.EventsDropped, m.PublishFailures, m.RateLimited, m.RateLimitFailOpen,
		m.CacheHit, m.CacheMiss, m.ExpirySweeps,
	)
	return m
}

// NewForTest returns metrics on a private registry.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OwnerLabel buckets an owner id into AnonymousOwner or IdentifiedOwner.
func OwnerLabel(owner string) string {
	if owner == "" {
		return AnonymousOwner
	}
	return IdentifiedOwner
}
