package event

import (
	"time"
)

// SyncStatus tracks the outbound push state of a local event.
type SyncStatus string

const (
	SyncStatusLocal  SyncStatus = "local"  // never pushed
	SyncStatusSynced SyncStatus = "synced" // provider confirmed
	SyncStatusError  SyncStatus = "error"  // push failed, parked for manual retry
)

// SchedulingEvent is the local calendar record. It contains no database tags
// or provider-specific details.
type SchedulingEvent struct {
	ID            int64
	IntegrationID int64
	CalendarID    string
	ExternalID    string // provider event id; empty until the provider confirms creation
	Title         string
	Description   string
	Start         time.Time
	End           time.Time
	AllDay        bool
	Location      string
	Attendees     []string
	Recurrence    []string
	Subcalendar   string
	SyncStatus    SyncStatus
	SyncError     string
	SyncedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSchedulingEvent creates a local-only event that has not been pushed yet.
func NewSchedulingEvent(integrationID int64, calendarID, title string, start, end time.Time) *SchedulingEvent {
	now := time.Now().UTC()
	return &SchedulingEvent{
		IntegrationID: integrationID,
		CalendarID:    calendarID,
		Title:         title,
		Start:         start,
		End:           end,
		SyncStatus:    SyncStatusLocal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
