package action

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/event"
)

// EventPusher is the outbound side of calendar creation, satisfied by
// sync.Outbound.
type EventPusher interface {
	Push(ctx context.Context, ev *event.SchedulingEvent) error
}

// CalendarActions backs the calendar intent with a real local record and an
// outbound push. Task and financial records live in collaborator services
// outside this layer, so those actions only log here.
type CalendarActions struct {
	events        event.Repository
	pusher        EventPusher
	integrationID int64
	calendarID    string
	logger        *zap.Logger
}

func NewCalendarActions(events event.Repository, pusher EventPusher, cfg *config.Config, logger *zap.Logger) *CalendarActions {
	return &CalendarActions{
		events:        events,
		pusher:        pusher,
		integrationID: cfg.DefaultIntegrationID,
		calendarID:    cfg.DefaultCalendarID,
		logger:        logger.Named("action.calendar"),
	}
}

func (a *CalendarActions) CreateCalendarEventAction(ctx context.Context, req Request) error {
	title, _ := req.Data["title"].(string)
	if title == "" {
		return fmt.Errorf("calendar action: missing title")
	}

	start := resolveStart(req.Data)
	ev := event.NewSchedulingEvent(a.integrationID, a.calendarID, title, start, start.Add(time.Hour))
	ev.Description = fmt.Sprintf("Created from message %s", req.MessageID)

	if err := a.events.Save(ctx, ev); err != nil {
		return fmt.Errorf("save scheduling event: %w", err)
	}

	if err := a.pusher.Push(ctx, ev); err != nil {
		// Push failures are parked on the event row, not retried here.
		a.logger.Warn("calendar_event_push_parked",
			zap.Int64("event_id", ev.ID),
			zap.Error(err),
		)
	}

	a.logger.Info("calendar_event_created",
		zap.Int64("event_id", ev.ID),
		zap.String("message_id", req.MessageID),
	)
	return nil
}

func (a *CalendarActions) CreateTaskAction(ctx context.Context, req Request) error {
	a.logger.Info("task_action_dispatched",
		zap.String("message_id", req.MessageID),
		zap.Any("priority", req.Data["priority"]),
	)
	return nil
}

func (a *CalendarActions) CreateFinancialRecordAction(ctx context.Context, req Request) error {
	a.logger.Info("financial_record_action_dispatched",
		zap.String("message_id", req.MessageID),
		zap.Any("amount", req.Data["amount"]),
	)
	return nil
}

// resolveStart parses the extracted D/M/YYYY date and H:MM time, defaulting
// to one hour from now when the message carried neither.
func resolveStart(data map[string]any) time.Time {
	now := time.Now().UTC()
	start := now.Add(time.Hour)

	if raw, ok := data["date"].(string); ok {
		for _, layout := range []string{"2/1/2006", "2-1-2006"} {
			if parsed, err := time.Parse(layout, raw); err == nil {
				start = parsed
				break
			}
		}
	}
	if raw, ok := data["time"].(string); ok {
		if parsed, err := time.Parse("15:04", raw); err == nil {
			start = time.Date(start.Year(), start.Month(), start.Day(),
				parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		}
	}
	return start
}

// LoggingSimpleActions is the default simple-action collaborator. Keyword
// auto-actions are intentionally disabled to avoid spurious record creation.
type LoggingSimpleActions struct {
	logger *zap.Logger
}

func NewLoggingSimpleActions(logger *zap.Logger) *LoggingSimpleActions {
	return &LoggingSimpleActions{logger: logger.Named("action.simple")}
}

func (a *LoggingSimpleActions) TriggerSimpleAction(ctx context.Context, eventType string, payload string) error {
	a.logger.Info("simple_action_triggered", zap.String("event_type", eventType))
	return nil
}

// LoggingNotifier stands in for the conversation reply path.
type LoggingNotifier struct {
	logger *zap.Logger
}

func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger.Named("action.notifier")}
}

func (n *LoggingNotifier) NotifyParseFailure(ctx context.Context, messageID string, reason string) error {
	n.logger.Info("parse_failure_notification",
		zap.String("message_id", messageID),
		zap.String("reason", reason),
	)
	return nil
}
