package domain

//go:generate mockery --name=LinkRepository --output=../mocks --outpkg=mocks

import (
	"context"
	"time"
)

// LinkRepository defines the interface for short link persistence operations.
// This interface is defined in the domain layer and implemented in the data layer.
type LinkRepository interface {
	// Exists checks if a short code is already taken.
	Exists(ctx context.Context, code ShortCode) (bool, error)

	// Save persists a new short link. A taken short code yields ErrShortCodeExists.
	Save(ctx context.Context, link *ShortLink) error

	// FindByShortCode retrieves a link by its short code, expired or not.
	// Returns nil if not found.
	FindByShortCode(ctx context.Context, code ShortCode) (*ShortLink, error)

	// RecordRedirect atomically increments the redirect count and sets the last redirect time.
	RecordRedirect(ctx context.Context, code ShortCode, at time.Time) error

	// Delete removes a link. Returns ErrLinkNotFound if nothing was deleted.
	Delete(ctx context.Context, code ShortCode) error

	// DeleteExpired removes every link whose expiry is at or before now and
	// returns the removed short codes.
	DeleteExpired(ctx context.Context, now time.Time) ([]ShortCode, error)
}

// LinkCache is the read path cache in front of a LinkRepository.
// Implementations treat their own failures as misses.
type LinkCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, code ShortCode) (*ShortLink, error)

	Set(ctx context.Context, link *ShortLink) error

	// InvalidateAll drops every cached link.
	InvalidateAll(ctx context.Context) error
}
