package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nidohq/nido-sync/internal/domain/event"
)

// EventModel is the database DTO with Gorm tags.
type EventModel struct {
	ID            int64   `gorm:"primaryKey"`
	IntegrationID int64   `gorm:"index:idx_events_external,unique,where:external_id <> ''"`
	CalendarID    string  `gorm:"type:varchar(255)"`
	ExternalID    string  `gorm:"type:varchar(255);index:idx_events_external,unique,where:external_id <> ''"`
	Title         string  `gorm:"type:text"`
	Description   string  `gorm:"type:text"`
	StartAt       time.Time
	EndAt         time.Time
	AllDay        bool
	Location      string `gorm:"type:text"`
	Attendees     string `gorm:"type:jsonb"`
	Recurrence    string `gorm:"type:jsonb"`
	Subcalendar   string `gorm:"type:varchar(255)"`
	SyncStatus    string `gorm:"type:varchar(50)"`
	SyncError     string `gorm:"type:text"`
	SyncedAt      *time.Time
	CreatedAt     time.Time
	// Carries the remote updated timestamp after reconciliation, so gorm
	// must not overwrite it on save.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (EventModel) TableName() string {
	return "scheduling_events"
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (*event.SchedulingEvent, error) {
	var model EventModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return eventToDomain(model), nil
}

func (r *EventRepository) FindByExternalID(ctx context.Context, integrationID int64, externalID string) (*event.SchedulingEvent, error) {
	var model EventModel
	err := r.db.WithContext(ctx).
		Where("integration_id = ? AND external_id = ?", integrationID, externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return eventToDomain(model), nil
}

func (r *EventRepository) Save(ctx context.Context, entity *event.SchedulingEvent) error {
	model := eventToModel(entity)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	// Propagate ID back to entity if new
	entity.ID = model.ID
	return nil
}

func (r *EventRepository) SetExternalID(ctx context.Context, id int64, externalID string) error {
	return r.db.WithContext(ctx).Model(&EventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_id": externalID,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *EventRepository) MarkSynced(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&EventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": string(event.SyncStatusSynced),
			"sync_error":  "",
			"synced_at":   now,
			"updated_at":  now,
		}).Error
}

func (r *EventRepository) MarkSyncError(ctx context.Context, id int64, msg string) error {
	return r.db.WithContext(ctx).Model(&EventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": string(event.SyncStatusError),
			"sync_error":  msg,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// Mappers

func eventToDomain(m EventModel) *event.SchedulingEvent {
	return &event.SchedulingEvent{
		ID:            m.ID,
		IntegrationID: m.IntegrationID,
		CalendarID:    m.CalendarID,
		ExternalID:    m.ExternalID,
		Title:         m.Title,
		Description:   m.Description,
		Start:         m.StartAt,
		End:           m.EndAt,
		AllDay:        m.AllDay,
		Location:      m.Location,
		Attendees:     decodeStrings(m.Attendees),
		Recurrence:    decodeStrings(m.Recurrence),
		Subcalendar:   m.Subcalendar,
		SyncStatus:    event.SyncStatus(m.SyncStatus),
		SyncError:     m.SyncError,
		SyncedAt:      m.SyncedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func eventToModel(d *event.SchedulingEvent) EventModel {
	return EventModel{
		ID:            d.ID,
		IntegrationID: d.IntegrationID,
		CalendarID:    d.CalendarID,
		ExternalID:    d.ExternalID,
		Title:         d.Title,
		Description:   d.Description,
		StartAt:       d.Start,
		EndAt:         d.End,
		AllDay:        d.AllDay,
		Location:      d.Location,
		Attendees:     encodeStrings(d.Attendees),
		Recurrence:    encodeStrings(d.Recurrence),
		Subcalendar:   d.Subcalendar,
		SyncStatus:    string(d.SyncStatus),
		SyncError:     d.SyncError,
		SyncedAt:      d.SyncedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
