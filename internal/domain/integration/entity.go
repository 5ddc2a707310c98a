package integration

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("calendar integration not found")

// Integration holds provider credentials for one user's calendar account.
// Consumed, not owned, by the sync layer: tokens are issued elsewhere.
type Integration struct {
	ID           int64
	UserID       int64
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store looks up provider credentials.
type Store interface {
	// Find returns the integration by id, or ErrNotFound. Ownership checks
	// against the requesting user happen in the callers.
	Find(ctx context.Context, integrationID int64) (*Integration, error)
}
