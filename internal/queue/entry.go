package queue

import "time"

type EventType string

type Status string

const (
	EventTypeReaction  EventType = "reaction"
	EventTypeMessage   EventType = "message"
	EventTypeKeyword   EventType = "keyword"
	EventTypeScheduled EventType = "scheduled"
)

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ValidEventType reports whether the given type is a recognized enum value.
// Payloads are opaque to the queue; this is the only enqueue-time validation.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeReaction, EventTypeMessage, EventTypeKeyword, EventTypeScheduled:
		return true
	}
	return false
}

// Entry represents one durable unit of pending asynchronous work.
type Entry struct {
	ID          int64     `gorm:"primaryKey"`
	EventType   EventType `gorm:"type:varchar(50);not null"`
	Payload     string    `gorm:"type:jsonb;not null"`
	Status      Status    `gorm:"type:varchar(50);not null"`
	Attempts    int       `gorm:"not null;default:0"`
	MaxAttempts int       `gorm:"not null;default:3"`
	LastError   string    `gorm:"type:text"`
	ProcessedAt *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Entry) TableName() string {
	return "queue_entries"
}

// LogEntry is the append-only audit trail written once per classification
// attempt, success or failure.
type LogEntry struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	MessageID     string  `gorm:"type:varchar(255);not null"`
	ReactionEmoji string  `gorm:"type:varchar(16)"`
	ParsedType    string  `gorm:"type:varchar(50)"`
	Confidence    float64 `gorm:"not null;default:0"`
	ExtractedData string  `gorm:"type:jsonb"`
	Language      string  `gorm:"type:varchar(8)"`
	Success       bool    `gorm:"not null"`
	ErrorMessage  string  `gorm:"type:text"`
	ProcessingMs  int64   `gorm:"not null;default:0"`
	CreatedAt     time.Time
}

func (LogEntry) TableName() string {
	return "processing_log"
}
