package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/pkg/snowflake"
)

// Backlogs at or above this many pending entries flip the stats health flag.
const backlogWarningThreshold = 100

type Health string

const (
	HealthHealthy Health = "healthy"
	HealthWarning Health = "warning"
)

type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

type Stats struct {
	Stats   []StatusCount `json:"stats"`
	Backlog int64         `json:"backlog"`
	Health  Health        `json:"health"`
}

// Service owns enqueue and monitoring. Entry mutation past enqueue belongs to
// the Processor alone.
type Service struct {
	store       Store
	node        *snowflake.Node
	maxAttempts int
	logger      *zap.Logger
}

func NewService(store Store, node *snowflake.Node, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		store:       store,
		node:        node,
		maxAttempts: cfg.QueueMaxAttempts,
		logger:      logger.Named("queue.service"),
	}
}

func (s *Service) Enqueue(ctx context.Context, eventType EventType, payload string) (int64, error) {
	if !ValidEventType(eventType) {
		return 0, fmt.Errorf("unrecognized event type: %s", eventType)
	}
	if payload == "" {
		payload = "{}"
	}

	entry := &Entry{
		ID:          s.node.GenerateID(),
		EventType:   eventType,
		Payload:     payload,
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}

	s.logger.Debug("entry_enqueued",
		zap.Int64("entry_id", entry.ID),
		zap.String("event_type", string(eventType)),
	)
	return entry.ID, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	out := &Stats{Health: HealthHealthy}
	for _, status := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if n, ok := counts[status]; ok {
			out.Stats = append(out.Stats, StatusCount{Status: status, Count: n})
		}
	}

	out.Backlog = counts[StatusPending]
	if out.Backlog >= backlogWarningThreshold {
		out.Health = HealthWarning
	}
	return out, nil
}
