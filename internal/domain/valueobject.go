package domain

import (
	"flashlink/internal/domain/valueobject"
)

// Re-export value object types for convenience.
// This allows consumers to import from domain package directly.
type (
	ShortCode = valueobject.ShortCode
	LongURL   = valueobject.LongURL
)

// Re-export value object constructors.
var (
	NewShortCode    = valueobject.NewShortCode
	ShortCodeFromID = valueobject.ShortCodeFromID
	NewLongURL      = valueobject.NewLongURL
	EncodeID        = valueobject.Encode
	DecodeShortCode = valueobject.Decode
)

// MaxLongURLLength is re-exported for request validation.
const MaxLongURLLength = valueobject.MaxLongURLLength
