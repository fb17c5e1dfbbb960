package domain

import (
	"time"
)

// ShortLink maps a generated id, and the short code derived from it, to a long URL.
// After creation only the redirect counters change.
type ShortLink struct {
	ID             int64
	ShortCode      ShortCode
	LongURL        LongURL
	CreatedAt      time.Time
	ExpiryAt       *time.Time
	TTLSeconds     *int64
	OwnerID        string
	RedirectCount  int64
	LastRedirectAt *time.Time
	Metadata       map[string]string
}

// NewShortLink builds a link for a freshly generated id. The short code is
// derived from the id. An explicit expiry must be strictly after now.
func NewShortLink(id int64, longURL LongURL, now time.Time, expiryAt *time.Time, defaultExpiry time.Duration, ownerID string) (*ShortLink, error) {
	code, err := ShortCodeFromID(id)
	if err != nil {
		return nil, err
	}

	link := &ShortLink{
		ID:        id,
		ShortCode: code,
		LongURL:   longURL,
		CreatedAt: now,
		OwnerID:   ownerID,
	}

	if expiryAt != nil {
		if !expiryAt.After(now) {
			return nil, ErrInvalidExpiry
		}
		expiry := *expiryAt
		ttl := int64(expiry.Sub(now) / time.Second)
		link.ExpiryAt = &expiry
		link.TTLSeconds = &ttl
	} else if defaultExpiry > 0 {
		expiry := now.Add(defaultExpiry)
		link.ExpiryAt = &expiry
	}

	return link, nil
}

// IsExpired reports whether the link is past its expiry at the given time.
func (l *ShortLink) IsExpired(now time.Time) bool {
	if l.ExpiryAt == nil {
		return false
	}
	return !l.ExpiryAt.After(now)
}

// HasExpiration returns true if the link has an expiration date set.
func (l *ShortLink) HasExpiration() bool {
	return l.ExpiryAt != nil
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (l *ShortLink) Clone() *ShortLink {
	if l == nil {
		return nil
	}
	c := *l
	if l.ExpiryAt != nil {
		t := *l.ExpiryAt
		c.ExpiryAt = &t
	}
	if l.TTLSeconds != nil {
		ttl := *l.TTLSeconds
		c.TTLSeconds = &ttl
	}
	if l.LastRedirectAt != nil {
		t := *l.LastRedirectAt
		c.LastRedirectAt = &t
	}
	if l.Metadata != nil {
		c.Metadata = make(map[string]string, len(l.Metadata))
		for k, v := range l.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
