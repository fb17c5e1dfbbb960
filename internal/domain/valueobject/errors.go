package valueobject

import "errors"

// Validation sentinels. The domain package maps them onto API errors.
var (
	ErrInvalidURL  = errors.New("valueobject: long url must be an absolute http(s) url")
	ErrInvalidCode = errors.New("valueobject: short code must be 1-11 base62 characters")
)
