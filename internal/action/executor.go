package action

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/classifier"
)

// Below this confidence no domain action executes; the source is notified and
// the attempt is still logged by the processor.
const confidenceGate = 0.5

// Executor dispatches a classified intent to the matching domain collaborator.
type Executor struct {
	domain   DomainActions
	notifier Notifier
	logger   *zap.Logger
}

func NewExecutor(domain DomainActions, notifier Notifier, logger *zap.Logger) *Executor {
	return &Executor{
		domain:   domain,
		notifier: notifier,
		logger:   logger.Named("action.executor"),
	}
}

// Execute runs the confidence gate and dispatches. A gated intent is a normal
// outcome, not an error.
func (e *Executor) Execute(ctx context.Context, req Request) error {
	if req.Confidence < confidenceGate {
		e.logger.Info("classification_below_gate",
			zap.String("message_id", req.MessageID),
			zap.Float64("confidence", req.Confidence),
		)
		if err := e.notifier.NotifyParseFailure(ctx, req.MessageID, "could not understand the request"); err != nil {
			e.logger.Warn("parse_failure_notify_failed", zap.Error(err))
		}
		return nil
	}

	switch req.Type {
	case classifier.IntentCalendar:
		return e.domain.CreateCalendarEventAction(ctx, req)
	case classifier.IntentTask:
		return e.domain.CreateTaskAction(ctx, req)
	case classifier.IntentBill:
		return e.domain.CreateFinancialRecordAction(ctx, req)
	case classifier.IntentNote:
		// Note creation is accepted but has no backing action yet. Logged so
		// the gap stays visible instead of silently dropping the intent.
		e.logger.Info("note_intent_accepted_without_action",
			zap.String("message_id", req.MessageID),
		)
		return nil
	default:
		return fmt.Errorf("unsupported intent type: %s", req.Type)
	}
}
