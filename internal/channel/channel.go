package channel

import (
	"context"
	"time"
)

// Channel is one time-bounded push subscription registered with the calendar
// provider. Exactly one channel exists per watched remote calendar.
type Channel struct {
	ID            string // our channel id, sent to the provider at watch time
	CalendarID    string
	UserID        int64
	IntegrationID int64
	ResourceID    string // provider-issued, required to stop the watch
	Expiration    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store is the durable channel record. It is authoritative; the manager's
// in-memory index is a rebuildable cache on top of it.
type Store interface {
	Save(ctx context.Context, ch *Channel) error
	Delete(ctx context.Context, channelID string) error
	ListAll(ctx context.Context) ([]*Channel, error)
}
