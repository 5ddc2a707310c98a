package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/action"
	"github.com/nidohq/nido-sync/internal/classifier"
	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/message"
)

// ReactionPayload is the shape of reaction event data. Other event types stay
// opaque to the processor.
type ReactionPayload struct {
	Emoji     string `json:"emoji"`
	MessageID string `json:"messageId"`
	SpaceID   string `json:"spaceId"`
	UserID    string `json:"userId"`
}

// Processor polls the queue and drives each claimed entry through
// classification and execution. A single instance runs per process; the
// atomic claim keeps multiple processes from double-working an entry.
type Processor struct {
	store        Store
	strategy     classifier.Strategy
	executor     *action.Executor
	simple       action.SimpleActions
	messages     message.Store
	logger       *zap.Logger
	pollInterval time.Duration
	batchSize    int

	inFlight atomic.Bool
}

func NewProcessor(
	store Store,
	strategy classifier.Strategy,
	executor *action.Executor,
	simple action.SimpleActions,
	messages message.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		store:        store,
		strategy:     strategy,
		executor:     executor,
		simple:       simple,
		messages:     messages,
		logger:       logger.Named("queue.processor"),
		pollInterval: cfg.QueuePollInterval,
		batchSize:    cfg.QueueBatchSize,
	}
}

// Run polls until the context is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.ProcessBatch(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch claims one batch and processes it sequentially. At most one
// batch is in flight per process; overlapping calls are a no-op. No error
// escapes to the caller: per-item failures land on the entry rows.
func (p *Processor) ProcessBatch(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	entries, err := p.store.ClaimBatch(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("queue_claim_failed", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			p.logger.Warn("queue_entry_failed",
				zap.Int64("entry_id", entry.ID),
				zap.Int("attempts", entry.Attempts),
				zap.Error(err),
			)
			if markErr := p.store.MarkRetry(ctx, entry, err); markErr != nil {
				p.logger.Error("queue_mark_retry_failed",
					zap.Int64("entry_id", entry.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		if err := p.store.MarkCompleted(ctx, entry.ID); err != nil {
			p.logger.Error("queue_mark_completed_failed",
				zap.Int64("entry_id", entry.ID),
				zap.Error(err),
			)
		}
	}
}

func (p *Processor) processEntry(ctx context.Context, entry Entry) error {
	switch entry.EventType {
	case EventTypeReaction:
		return p.processReaction(ctx, entry)
	case EventTypeKeyword:
		// Keyword-triggered auto-actions are disabled: free text matches
		// keywords far too often to create records from them.
		p.logger.Debug("keyword_entry_skipped", zap.Int64("entry_id", entry.ID))
		return nil
	case EventTypeMessage, EventTypeScheduled:
		return p.simple.TriggerSimpleAction(ctx, string(entry.EventType), entry.Payload)
	default:
		return fmt.Errorf("unsupported event type: %s", entry.EventType)
	}
}

func (p *Processor) processReaction(ctx context.Context, entry Entry) error {
	var payload ReactionPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return fmt.Errorf("decode reaction payload: %w", err)
	}

	intent, recognized := classifier.TriggerForEmoji(payload.Emoji)
	if !recognized {
		return p.simple.TriggerSimpleAction(ctx, string(entry.EventType), entry.Payload)
	}

	started := time.Now()
	result, err := p.classify(ctx, payload, intent)
	p.appendLog(ctx, payload, result, err, time.Since(started))
	if err != nil {
		return err
	}

	return p.executor.Execute(ctx, action.Request{
		MessageID:  payload.MessageID,
		SpaceID:    payload.SpaceID,
		UserID:     payload.UserID,
		Type:       result.Type,
		Confidence: result.Confidence,
		Data:       result.Data,
		Language:   result.Language,
	})
}

func (p *Processor) classify(ctx context.Context, payload ReactionPayload, intent classifier.IntentType) (classifier.Result, error) {
	text, found, err := p.messages.FindText(ctx, payload.MessageID)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("lookup message %s: %w", payload.MessageID, err)
	}
	if !found {
		return classifier.Result{}, classifier.ErrInputMissing
	}

	return p.strategy.Classify(text, intent)
}

// appendLog writes the audit record for every classification attempt,
// including the ones that errored.
func (p *Processor) appendLog(ctx context.Context, payload ReactionPayload, result classifier.Result, cause error, elapsed time.Duration) {
	log := &LogEntry{
		MessageID:     payload.MessageID,
		ReactionEmoji: payload.Emoji,
		ParsedType:    string(result.Type),
		Confidence:    result.Confidence,
		Language:      result.Language,
		Success:       cause == nil,
		ProcessingMs:  elapsed.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}
	if cause != nil {
		log.ErrorMessage = cause.Error()
		if errors.Is(cause, classifier.ErrInputMissing) {
			log.ParsedType = ""
		}
	}
	if len(result.Data) > 0 {
		if data, err := json.Marshal(result.Data); err == nil {
			log.ExtractedData = string(data)
		}
	}

	if err := p.store.AppendLog(ctx, log); err != nil {
		p.logger.Error("processing_log_append_failed", zap.Error(err))
	}
}
