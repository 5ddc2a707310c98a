package event

import "context"

// Repository defines the interface for persisting SchedulingEvent entities.
type Repository interface {
	// FindByID retrieves an event by its local ID. Returns nil when absent.
	FindByID(ctx context.Context, id int64) (*SchedulingEvent, error)

	// FindByExternalID retrieves an event by provider event id within an
	// integration. Returns nil when absent.
	FindByExternalID(ctx context.Context, integrationID int64, externalID string) (*SchedulingEvent, error)

	// Save persists an event (create or update).
	Save(ctx context.Context, ev *SchedulingEvent) error

	// SetExternalID back-fills the provider id after remote creation.
	SetExternalID(ctx context.Context, id int64, externalID string) error

	// MarkSynced records a successful outbound push.
	MarkSynced(ctx context.Context, id int64) error

	// MarkSyncError parks an event whose outbound push failed.
	MarkSyncError(ctx context.Context, id int64, msg string) error
}
