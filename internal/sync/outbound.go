package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/domain/event"
	"github.com/nidohq/nido-sync/internal/domain/integration"
	"github.com/nidohq/nido-sync/pkg/calendarclient"
)

// EventWriter is the provider write side the outbound adapter needs.
type EventWriter interface {
	InsertEvent(ctx context.Context, token, calendarID string, ev calendarclient.Event) (*calendarclient.Event, error)
	UpdateEvent(ctx context.Context, token, calendarID string, ev calendarclient.Event) (*calendarclient.Event, error)
}

// Outbound pushes local event mutations to the provider, tagged so the echo
// coming back through the webhook is recognized as ours. Failures are parked
// on the event row; there is no automatic retry loop here.
type Outbound struct {
	provider     EventWriter
	integrations integration.Store
	events       event.Repository
	logger       *zap.Logger
}

func NewOutbound(
	provider *calendarclient.Client,
	integrations integration.Store,
	events event.Repository,
	logger *zap.Logger,
) *Outbound {
	return newOutbound(provider, integrations, events, logger)
}

func newOutbound(provider EventWriter, integrations integration.Store, events event.Repository, logger *zap.Logger) *Outbound {
	return &Outbound{
		provider:     provider,
		integrations: integrations,
		events:       events,
		logger:       logger.Named("sync.outbound"),
	}
}

// Push sends one local mutation outward. New events get their provider id
// back-filled once creation is confirmed.
func (o *Outbound) Push(ctx context.Context, ev *event.SchedulingEvent) error {
	integ, err := o.integrations.Find(ctx, ev.IntegrationID)
	if err != nil {
		return o.park(ctx, ev, fmt.Errorf("load integration %d: %w", ev.IntegrationID, err))
	}

	payload := localToRemote(ev)
	tagOutbound(&payload)

	if ev.ExternalID == "" {
		created, err := o.provider.InsertEvent(ctx, integ.AccessToken, ev.CalendarID, payload)
		if err != nil {
			return o.park(ctx, ev, fmt.Errorf("insert remote event: %w", err))
		}
		if err := o.events.SetExternalID(ctx, ev.ID, created.ID); err != nil {
			return fmt.Errorf("backfill external id: %w", err)
		}
		ev.ExternalID = created.ID
	} else {
		payload.ID = ev.ExternalID
		if _, err := o.provider.UpdateEvent(ctx, integ.AccessToken, ev.CalendarID, payload); err != nil {
			return o.park(ctx, ev, fmt.Errorf("update remote event: %w", err))
		}
	}

	if err := o.events.MarkSynced(ctx, ev.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	ev.SyncStatus = event.SyncStatusSynced

	o.logger.Info("event_pushed",
		zap.Int64("event_id", ev.ID),
		zap.String("external_id", ev.ExternalID),
	)
	return nil
}

// park records the failure on the event row for manual or deferred retry and
// returns the original cause.
func (o *Outbound) park(ctx context.Context, ev *event.SchedulingEvent, cause error) error {
	if err := o.events.MarkSyncError(ctx, ev.ID, cause.Error()); err != nil {
		o.logger.Error("park_sync_failure_failed",
			zap.Int64("event_id", ev.ID),
			zap.Error(err),
		)
	}
	ev.SyncStatus = event.SyncStatusError
	ev.SyncError = cause.Error()

	o.logger.Warn("event_push_parked",
		zap.Int64("event_id", ev.ID),
		zap.Error(cause),
	)
	return cause
}

func localToRemote(ev *event.SchedulingEvent) calendarclient.Event {
	return calendarclient.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       ev.Start,
		End:         ev.End,
		AllDay:      ev.AllDay,
		Location:    ev.Location,
		Attendees:   ev.Attendees,
		Recurrence:  ev.Recurrence,
	}
}
