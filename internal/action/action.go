package action

import (
	"context"

	"github.com/nidohq/nido-sync/internal/classifier"
)

// Request carries a classified intent to a domain action collaborator.
type Request struct {
	MessageID  string
	SpaceID    string
	UserID     string
	Type       classifier.IntentType
	Confidence float64
	Data       map[string]any
	Language   string
}

// SimpleActions handles everything that bypasses classification: unrecognized
// reaction emojis and plain message events.
type SimpleActions interface {
	TriggerSimpleAction(ctx context.Context, eventType string, payload string) error
}

// DomainActions are the record-creating collaborators. Their storage side is
// outside this layer.
type DomainActions interface {
	CreateCalendarEventAction(ctx context.Context, req Request) error
	CreateTaskAction(ctx context.Context, req Request) error
	CreateFinancialRecordAction(ctx context.Context, req Request) error
}

// Notifier replies to the originating conversation when classification could
// not produce an executable intent.
type Notifier interface {
	NotifyParseFailure(ctx context.Context, messageID string, reason string) error
}
