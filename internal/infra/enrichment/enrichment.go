// Package enrichment derives low cardinality labels from redirect requests.
package enrichment

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
)

// ProviderSet is enrichment providers.
var ProviderSet = wire.NewSet(NewEnricher)

// Attributes are the labels of one redirect.
type Attributes struct {
	Source  string
	Device  string
	Country string
}

// Enricher labels redirect events.
type Enricher struct {
	sources   *SourceClassifier
	countries CountryResolver
}

// New returns an enricher. A nil resolver labels every country unknown.
func New(countries CountryResolver) *Enricher {
	if countries == nil {
		countries = unknownCountry{}
	}
	return &Enricher{sources: NewSourceClassifier(), countries: countries}
}

// NewEnricher opens the configured GeoIP database, if any.
func NewEnricher(c *conf.Analytics, logger log.Logger) (*Enricher, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "enrichment"))
	if c == nil || c.GeoipDb == "" {
		helper.Info("geoip database not configured, countries reported as Unknown")
		return New(nil), func() {}, nil
	}
	geo, err := NewGeoIPResolver(c.GeoipDb)
	if err != nil {
		return nil, nil, fmt.Errorf("open geoip database %s: %w", c.GeoipDb, err)
	}
	cleanup := func() {
		if err := geo.Close(); err != nil {
			helper.Errorf("close geoip database: %v", err)
		}
	}
	return New(geo), cleanup, nil
}

func (e *Enricher) Enrich(evt event.AnalyticsEvent) Attributes {
	return Attributes{
		Source:  e.sources.Classify(evt.Referer),
		Device:  DetectDevice(evt.UserAgent),
		Country: e.countries.ResolveCountry(evt.ClientIP),
	}
}
