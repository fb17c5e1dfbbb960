package valueobject

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var base62Pattern = regexp.MustCompile(`^[0-9A-Za-z]+$`)

var shortCodeRules = []validation.Rule{
	validation.Required,
	validation.Length(1, maxEncodedLength),
	validation.Match(base62Pattern),
}

// ShortCode is the public, base62 form of a link id.
type ShortCode struct {
	value string
}

// NewShortCode parses a code received from a client.
func NewShortCode(code string) (ShortCode, error) {
	if validation.Validate(code, shortCodeRules...) != nil {
		return ShortCode{}, ErrInvalidCode
	}
	return ShortCode{value: code}, nil
}

// ShortCodeFromID derives the code of a generated id.
func ShortCodeFromID(id int64) (ShortCode, error) {
	return NewShortCode(Encode(id))
}

// ID decodes the code back into the id it was derived from.
func (s ShortCode) ID() (int64, bool) {
	return Decode(s.value)
}

func (s ShortCode) String() string { return s.value }

func (s ShortCode) IsEmpty() bool { return s.value == "" }

func (s ShortCode) Equals(other ShortCode) bool { return s.value == other.value }
