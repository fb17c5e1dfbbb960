package enrichment

import (
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// CountryUnknown labels private, invalid and unresolved addresses.
const CountryUnknown = "Unknown"

// CountryResolver maps a client IP to an ISO country code.
type CountryResolver interface {
	ResolveCountry(ip string) string
}

// GeoIPResolver reads a MaxMind country database.
type GeoIPResolver struct {
	db *geoip2.Reader
}

func NewGeoIPResolver(path string) (*GeoIPResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{db: db}, nil
}

func (g *GeoIPResolver) ResolveCountry(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return CountryUnknown
	}
	record, err := g.db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return CountryUnknown
	}
	return record.Country.IsoCode
}

func (g *GeoIPResolver) Close() error {
	return g.db.Close()
}

type unknownCountry struct{}

func (unknownCountry) ResolveCountry(string) string { return CountryUnknown }
