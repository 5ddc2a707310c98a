package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/channel"
	"github.com/nidohq/nido-sync/internal/domain/event"
	"github.com/nidohq/nido-sync/internal/domain/integration"
)

type outboundFixture struct {
	provider *fakeProvider
	repo     *fakeEventRepo
	out      *Outbound
}

func newOutboundFixture() *outboundFixture {
	integrations := &fakeIntegrations{byID: map[int64]*integration.Integration{
		42: {ID: 42, UserID: 7, AccessToken: "tok"},
	}}
	provider := &fakeProvider{nextRemote: "remote-xyz"}
	repo := newFakeEventRepo()
	return &outboundFixture{
		provider: provider,
		repo:     repo,
		out:      newOutbound(provider, integrations, repo, zap.NewNop()),
	}
}

func (f *outboundFixture) newLocalEvent(t *testing.T) *event.SchedulingEvent {
	t.Helper()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	ev := event.NewSchedulingEvent(42, "cal-1", "Dentist", start, start.Add(time.Hour))
	ev.Description = "bring insurance card"
	require.NoError(t, f.repo.Save(context.Background(), ev))
	return ev
}

func TestPush_CreatesAndBackfillsExternalID(t *testing.T) {
	f := newOutboundFixture()
	ev := f.newLocalEvent(t)

	require.NoError(t, f.out.Push(context.Background(), ev))

	require.Len(t, f.provider.inserted, 1)
	sent := f.provider.inserted[0]
	assert.Equal(t, "Dentist", sent.Summary)
	assert.Equal(t, markerSource, sent.ExtendedPrivate[markerSourceKey])
	assert.Contains(t, sent.Description, markerSuffix)

	assert.Equal(t, "remote-xyz", ev.ExternalID)
	assert.Equal(t, event.SyncStatusSynced, ev.SyncStatus)

	stored, _ := f.repo.FindByID(context.Background(), ev.ID)
	assert.Equal(t, "remote-xyz", stored.ExternalID)
	assert.Equal(t, event.SyncStatusSynced, stored.SyncStatus)
}

func TestPush_UpdatesExistingRemote(t *testing.T) {
	f := newOutboundFixture()
	ev := f.newLocalEvent(t)
	ev.ExternalID = "remote-old"

	require.NoError(t, f.out.Push(context.Background(), ev))

	assert.Empty(t, f.provider.inserted)
	require.Len(t, f.provider.updated, 1)
	assert.Equal(t, "remote-old", f.provider.updated[0].ID)
}

func TestPush_InsertFailureParked(t *testing.T) {
	f := newOutboundFixture()
	f.provider.insertErr = fmt.Errorf("provider: 503")
	ev := f.newLocalEvent(t)

	err := f.out.Push(context.Background(), ev)
	require.Error(t, err)

	assert.Equal(t, event.SyncStatusError, ev.SyncStatus)
	assert.Contains(t, ev.SyncError, "503")

	stored, _ := f.repo.FindByID(context.Background(), ev.ID)
	assert.Equal(t, event.SyncStatusError, stored.SyncStatus)
	assert.Contains(t, stored.SyncError, "503")
	assert.Empty(t, stored.ExternalID, "failed creation must not fabricate an external id")
}

func TestPush_UnknownIntegrationParked(t *testing.T) {
	f := newOutboundFixture()
	ev := f.newLocalEvent(t)
	ev.IntegrationID = 999

	err := f.out.Push(context.Background(), ev)
	require.Error(t, err)
	assert.Equal(t, event.SyncStatusError, ev.SyncStatus)
}

func TestPush_RoundTripEchoIgnored(t *testing.T) {
	// The full loop: push a local event, then feed the provider's echo of the
	// tagged payload back through the reconciler. Local state must not churn.
	f := newOutboundFixture()
	ev := f.newLocalEvent(t)
	require.NoError(t, f.out.Push(context.Background(), ev))

	echo := f.provider.inserted[0]
	echo.ID = ev.ExternalID
	echo.Updated = time.Now().UTC().Add(time.Minute)
	f.provider.events = append(f.provider.events, echo)

	channels := &fakeChannelIndex{byID: map[string]*channel.Channel{
		"ch-1": {ID: "ch-1", CalendarID: "cal-1", UserID: 7, IntegrationID: 42},
	}}
	integrations := &fakeIntegrations{byID: map[int64]*integration.Integration{
		42: {ID: 42, UserID: 7, AccessToken: "tok"},
	}}
	rec := newReconciler(channels, integrations, f.provider, f.repo, zap.NewNop())

	before, _ := f.repo.FindByID(context.Background(), ev.ID)
	require.NoError(t, rec.HandleNotification(context.Background(), Notification{ChannelID: "ch-1"}))
	after, _ := f.repo.FindByID(context.Background(), ev.ID)

	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "echoed write must not re-apply")
	assert.Equal(t, before.Description, after.Description)
}
