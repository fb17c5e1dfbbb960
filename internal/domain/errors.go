package domain

import (
	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonLinkNotFound       = "LINK_NOT_FOUND"
	ReasonRateLimited        = "RATE_LIMITED"
	ReasonCollisionExhausted = "COLLISION_EXHAUSTED"
	ReasonBackendUnavailable = "BACKEND_UNAVAILABLE"
	ReasonInvalidURL         = "INVALID_URL"
	ReasonInvalidExpiry      = "INVALID_EXPIRY"
	ReasonInvalidShortCode   = "INVALID_SHORT_CODE"
)

var (
	// ErrLinkNotFound covers unknown and expired codes. It is a normal outcome.
	ErrLinkNotFound = errors.NotFound(ReasonLinkNotFound, "short link not found")
	// ErrRateLimited signals throttling, not an internal failure.
	ErrRateLimited = errors.New(429, ReasonRateLimited, "rate limit exceeded, please try again later")
	// ErrCollisionExhausted is fatal to a create call and is not retried upstream.
	ErrCollisionExhausted = errors.InternalServer(ReasonCollisionExhausted, "failed to generate a unique short code")
	// ErrBackendUnavailable wraps record store failures.
	ErrBackendUnavailable = errors.ServiceUnavailable(ReasonBackendUnavailable, "backend unavailable")

	ErrInvalidURL       = errors.BadRequest(ReasonInvalidURL, "url must be an http(s) URL of at most 2048 characters")
	ErrInvalidExpiry    = errors.BadRequest(ReasonInvalidExpiry, "expiry must be in the future")
	ErrInvalidShortCode = errors.BadRequest(ReasonInvalidShortCode, "short code must be alphanumeric")

	// ErrShortCodeExists is returned by repositories on a unique index violation.
	ErrShortCodeExists = errors.Conflict("SHORT_CODE_EXISTS", "short code already exists")
)
