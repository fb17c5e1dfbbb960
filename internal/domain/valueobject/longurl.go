package valueobject

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxLongURLLength bounds the stored target URL.
const MaxLongURLLength = 2048

// LongURL is a redirect target. Only absolute http and https URLs with a host qualify.
type LongURL struct {
	value  string
	parsed *url.URL
}

// NewLongURL validates raw and keeps its parsed form. The scheme is matched
// case-insensitively.
func NewLongURL(raw string) (LongURL, error) {
	err := validation.Validate(raw,
		validation.Required,
		validation.RuneLength(1, MaxLongURLLength),
	)
	if err != nil {
		return LongURL{}, ErrInvalidURL
	}

	u, err := url.ParseRequestURI(raw)
	switch {
	case err != nil, u.Host == "":
		return LongURL{}, ErrInvalidURL
	case u.Scheme != "http" && u.Scheme != "https":
		return LongURL{}, ErrInvalidURL
	}
	// url.Parse lower-cases the scheme; is.URL does not.
	if validation.Validate(u.String(), is.URL) != nil {
		return LongURL{}, ErrInvalidURL
	}
	return LongURL{value: raw, parsed: u}, nil
}

func (o LongURL) String() string { return o.value }

// Host is empty for the zero value.
func (o LongURL) Host() string {
	if o.parsed == nil {
		return ""
	}
	return o.parsed.Host
}

func (o LongURL) IsEmpty() bool { return o.value == "" }
