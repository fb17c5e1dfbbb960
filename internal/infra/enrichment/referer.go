package enrichment

import (
	"net/url"
	"strings"
)

const (
	SourceDirect   = "Direct"
	SourceSearch   = "Search"
	SourceSocial   = "Social"
	SourceAI       = "AI"
	SourceReferral = "Referral"
)

// SourceClassifier buckets referer URLs into traffic sources by host suffix.
type SourceClassifier struct {
	search []string
	social []string
	ai     []string
}

func NewSourceClassifier() *SourceClassifier {
	return &SourceClassifier{
		search: []string{"google.com", "bing.com", "yahoo.com", "duckduckgo.com", "baidu.com", "yandex.ru", "ecosia.org"},
		social: []string{
			"facebook.com", "twitter.com", "x.com", "t.co", "instagram.com", "linkedin.com", "pinterest.com",
			"reddit.com", "tiktok.com", "youtube.com", "threads.net", "mastodon.social",
		},
		ai: []string{"chatgpt.com", "claude.ai", "gemini.google.com", "perplexity.ai", "copilot.microsoft.com"},
	}
}

// Classify returns SourceDirect for an empty or unparsable referer.
// AI hosts are checked first since some live under search domains.
func (c *SourceClassifier) Classify(referer string) string {
	if referer == "" {
		return SourceDirect
	}
	u, err := url.Parse(referer)
	if err != nil || u.Hostname() == "" {
		return SourceDirect
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch {
	case matchHost(host, c.ai):
		return SourceAI
	case matchHost(host, c.search):
		return SourceSearch
	case matchHost(host, c.social):
		return SourceSocial
	default:
		return SourceReferral
	}
}

func matchHost(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
