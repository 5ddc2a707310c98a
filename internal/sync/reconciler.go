package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/channel"
	"github.com/nidohq/nido-sync/internal/domain/event"
	"github.com/nidohq/nido-sync/internal/domain/integration"
	"github.com/nidohq/nido-sync/pkg/calendarclient"
)

// Notification is the provider push as extracted from request headers. It
// never carries a diff, only which resource changed.
type Notification struct {
	ChannelID     string
	ResourceState string
	ResourceID    string
	MessageNumber string
}

// ChannelIndex resolves channel ids to tracked channels.
type ChannelIndex interface {
	Lookup(channelID string) (*channel.Channel, bool)
}

// EventLister is the provider read side the reconciler needs.
type EventLister interface {
	ListEvents(ctx context.Context, token, calendarID string) ([]calendarclient.Event, error)
}

// Reconciler merges authoritative remote state into local records after a
// change notification. Conflicts resolve last-writer-wins by wall clock,
// which is adequate for personal-calendar concurrency and explicitly not
// linearizable.
type Reconciler struct {
	channels     ChannelIndex
	integrations integration.Store
	provider     EventLister
	events       event.Repository
	logger       *zap.Logger
}

func NewReconciler(
	channels *channel.Manager,
	integrations integration.Store,
	provider *calendarclient.Client,
	events event.Repository,
	logger *zap.Logger,
) *Reconciler {
	return newReconciler(channels, integrations, provider, events, logger)
}

func newReconciler(channels ChannelIndex, integrations integration.Store, provider EventLister, events event.Repository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		channels:     channels,
		integrations: integrations,
		provider:     provider,
		events:       events,
		logger:       logger.Named("sync.reconciler"),
	}
}

// HandleNotification processes one provider push. Unknown or stale channel
// ids are acknowledged as a no-op, never an error: renewals retire ids while
// notifications for them are still in flight.
func (r *Reconciler) HandleNotification(ctx context.Context, n Notification) error {
	// The initial handshake after watch registration carries no change.
	if n.ResourceState == "sync" {
		r.logger.Debug("webhook_handshake_ignored", zap.String("channel_id", n.ChannelID))
		return nil
	}

	ch, ok := r.channels.Lookup(n.ChannelID)
	if !ok {
		r.logger.Info("webhook_unknown_channel_ignored",
			zap.String("channel_id", n.ChannelID),
			zap.String("resource_state", n.ResourceState),
		)
		return nil
	}

	integ, err := r.integrations.Find(ctx, ch.IntegrationID)
	if err != nil {
		return fmt.Errorf("load integration %d: %w", ch.IntegrationID, err)
	}

	remote, err := r.provider.ListEvents(ctx, integ.AccessToken, ch.CalendarID)
	if err != nil {
		return fmt.Errorf("fetch events for %s: %w", ch.CalendarID, err)
	}

	for _, rev := range remote {
		if err := r.reconcileEvent(ctx, ch, rev); err != nil {
			r.logger.Error("event_reconcile_failed",
				zap.String("external_id", rev.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (r *Reconciler) reconcileEvent(ctx context.Context, ch *channel.Channel, remote calendarclient.Event) error {
	if isSelfOriginated(remote) {
		r.logger.Debug("self_originated_event_skipped", zap.String("external_id", remote.ID))
		return nil
	}

	local, err := r.events.FindByExternalID(ctx, ch.IntegrationID, remote.ID)
	if err != nil {
		return fmt.Errorf("lookup local event: %w", err)
	}

	if local == nil {
		created := remoteToLocal(ch, remote)
		if err := r.events.Save(ctx, created); err != nil {
			return fmt.Errorf("create local event: %w", err)
		}
		r.logger.Info("remote_event_imported",
			zap.String("external_id", remote.ID),
			zap.Int64("event_id", created.ID),
		)
		return nil
	}

	// Strictly newer remote wins. On equal timestamps the local version is
	// presumed authoritative and will be pushed outward separately.
	if !remote.Updated.After(local.UpdatedAt) {
		return nil
	}

	applyRemote(local, remote)
	if err := r.events.Save(ctx, local); err != nil {
		return fmt.Errorf("update local event: %w", err)
	}
	r.logger.Info("remote_event_applied",
		zap.String("external_id", remote.ID),
		zap.Int64("event_id", local.ID),
	)
	return nil
}

func remoteToLocal(ch *channel.Channel, remote calendarclient.Event) *event.SchedulingEvent {
	local := event.NewSchedulingEvent(ch.IntegrationID, ch.CalendarID, remote.Summary, remote.Start, remote.End)
	local.ExternalID = remote.ID
	applyRemote(local, remote)
	local.SyncStatus = event.SyncStatusSynced
	return local
}

func applyRemote(local *event.SchedulingEvent, remote calendarclient.Event) {
	local.Title = remote.Summary
	local.Description = stripMarker(remote.Description)
	local.Start = remote.Start
	local.End = remote.End
	local.AllDay = remote.AllDay
	local.Location = remote.Location
	local.Attendees = remote.Attendees
	local.Recurrence = remote.Recurrence
	local.UpdatedAt = remote.Updated
}
