package enrichment

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashlink/internal/conf"
	"flashlink/internal/domain/event"
)

const (
	chromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadSafari    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	googlebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestSourceClassifier_Classify(t *testing.T) {
	c := NewSourceClassifier()

	tests := []struct {
		referer string
		want    string
	}{
		{"", SourceDirect},
		{"::not a url", SourceDirect},
		{"https://www.google.com/search?q=go", SourceSearch},
		{"https://duckduckgo.com/", SourceSearch},
		{"https://news.ycombinator.com/item?id=1", SourceReferral},
		{"https://m.facebook.com/story", SourceSocial},
		{"https://t.co/abc", SourceSocial},
		{"https://gemini.google.com/app", SourceAI},
		{"https://claude.ai/chat/1", SourceAI},
		{"https://notgoogle.com/", SourceReferral},
	}

	for _, tt := range tests {
		t.Run(tt.referer, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.referer))
		})
	}
}

func TestDetectDevice(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"empty", "", DeviceUnknown},
		{"desktop", chromeDesktop, DeviceDesktop},
		{"mobile", iphoneSafari, DeviceMobile},
		{"tablet", ipadSafari, DeviceTablet},
		{"bot", googlebot, DeviceBot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDevice(tt.ua))
		})
	}
}

type staticCountry string

func (s staticCountry) ResolveCountry(string) string { return string(s) }

func TestEnricher_Enrich(t *testing.T) {
	// Arrange
	e := New(staticCountry("NL"))
	evt := event.NewRedirect("abc", "https://example.com", event.RequestInfo{
		ClientIP:  "198.51.100.1",
		UserAgent: iphoneSafari,
		Referer:   "https://www.reddit.com/r/golang",
	}, time.Now())

	// Act
	attrs := e.Enrich(evt)

	// Assert
	assert.Equal(t, Attributes{Source: SourceSocial, Device: DeviceMobile, Country: "NL"}, attrs)
}

func TestNewEnricher_WithoutDatabase(t *testing.T) {
	e, cleanup, err := NewEnricher(&conf.Analytics{}, log.DefaultLogger)
	require.NoError(t, err)
	defer cleanup()

	attrs := e.Enrich(event.NewRedirect("abc", "https://example.com", event.RequestInfo{ClientIP: "8.8.8.8"}, time.Now()))

	assert.Equal(t, CountryUnknown, attrs.Country)
	assert.Equal(t, SourceDirect, attrs.Source)
}

func TestNewEnricher_MissingDatabase(t *testing.T) {
	_, _, err := NewEnricher(&conf.Analytics{GeoipDb: filepath.Join(t.TempDir(), "missing.mmdb")}, log.DefaultLogger)

	assert.Error(t, err)
}
