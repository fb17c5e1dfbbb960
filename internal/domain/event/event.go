package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of analytics event kinds.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeRedirect
	TypeLinkCreated
	TypeLinkExpired
	TypeLinkDeleted
)

var typeNames = map[Type]string{
	TypeRedirect:    "REDIRECT",
	TypeLinkCreated: "LINK_CREATED",
	TypeLinkExpired: "LINK_EXPIRED",
	TypeLinkDeleted: "LINK_DELETED",
}

// Types lists every known event type.
func Types() []Type {
	return []Type{TypeRedirect, TypeLinkCreated, TypeLinkExpired, TypeLinkDeleted}
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseType returns TypeUnknown and an error for names outside the set.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown event type %q", name)
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("unknown event type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AnalyticsEvent is produced on the request path and consumed at least once.
type AnalyticsEvent struct {
	EventID   string            `json:"event_id"`
	Type      Type              `json:"event_type"`
	ShortCode string            `json:"short_code"`
	LongURL   string            `json:"long_url,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Referer   string            `json:"referer,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RequestInfo describes the client behind a redirect.
type RequestInfo struct {
	ClientIP  string
	UserAgent string
	Referer   string
}

func newEvent(t Type, shortCode, longURL string, at time.Time) AnalyticsEvent {
	return AnalyticsEvent{
		EventID:   uuid.Must(uuid.NewV7()).String(),
		Type:      t,
		ShortCode: shortCode,
		LongURL:   longURL,
		Timestamp: at.UTC(),
	}
}

// NewRedirect creates a Redirect event.
func NewRedirect(shortCode, longURL string, info RequestInfo, at time.Time) AnalyticsEvent {
	e := newEvent(TypeRedirect, shortCode, longURL, at)
	e.ClientIP = info.ClientIP
	e.UserAgent = info.UserAgent
	e.Referer = info.Referer
	return e
}

// NewLinkCreated creates a LinkCreated event carrying the owner in its metadata.
func NewLinkCreated(shortCode, longURL, ownerID string, at time.Time) AnalyticsEvent {
	e := newEvent(TypeLinkCreated, shortCode, longURL, at)
	e.Metadata = map[string]string{MetadataOwnerID: ownerID}
	return e
}

// NewLinkExpired creates a LinkExpired event.
func NewLinkExpired(shortCode string, at time.Time) AnalyticsEvent {
	return newEvent(TypeLinkExpired, shortCode, "", at)
}

// NewLinkDeleted creates a LinkDeleted event.
func NewLinkDeleted(shortCode, longURL string, at time.Time) AnalyticsEvent {
	return newEvent(TypeLinkDeleted, shortCode, longURL, at)
}

// MetadataOwnerID is the metadata key of the link owner on LinkCreated.
const MetadataOwnerID = "ownerId"
