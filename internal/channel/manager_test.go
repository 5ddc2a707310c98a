package channel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/integration"
	"github.com/nidohq/nido-sync/pkg/calendarclient"
)

type fakeProvider struct {
	mu        sync.Mutex
	calendars []calendarclient.Calendar
	watches   []calendarclient.WatchRequest
	stopped   []string
	watchTTL  time.Duration
	watchErr  error
}

func (f *fakeProvider) ListCalendars(ctx context.Context, token string) ([]calendarclient.Calendar, error) {
	return f.calendars, nil
}

func (f *fakeProvider) Watch(ctx context.Context, token string, req calendarclient.WatchRequest) (*calendarclient.WatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	f.watches = append(f.watches, req)
	ttl := f.watchTTL
	if ttl == 0 {
		ttl = req.TTL
	}
	return &calendarclient.WatchResult{
		ResourceID: "res-" + req.CalendarID,
		Expiration: time.Now().UTC().Add(ttl),
	}, nil
}

func (f *fakeProvider) StopChannel(ctx context.Context, token string, channelID, resourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, channelID)
	return nil
}

type fakeChannelStore struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{channels: make(map[string]*Channel)}
}

func (f *fakeChannelStore) Save(ctx context.Context, ch *Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *ch
	f.channels[ch.ID] = &copied
	return nil
}

func (f *fakeChannelStore) Delete(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channelID)
	return nil
}

func (f *fakeChannelStore) ListAll(ctx context.Context) ([]*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	return out, nil
}

type fakeIntegrations struct {
	byID map[int64]*integration.Integration
}

func (f *fakeIntegrations) Find(ctx context.Context, integrationID int64) (*integration.Integration, error) {
	integ, ok := f.byID[integrationID]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return integ, nil
}

func testConfig() *config.Config {
	return &config.Config{
		WebhookCallbackURL:     "https://nido.example.com/webhooks/calendar",
		ChannelTTL:             7 * 24 * time.Hour,
		ChannelRenewalBuffer:   24 * time.Hour,
		ChannelRenewalInterval: time.Hour,
	}
}

func newTestManager(provider Provider, store Store) *Manager {
	integrations := &fakeIntegrations{byID: map[int64]*integration.Integration{
		42: {ID: 42, UserID: 7, Provider: "google", AccessToken: "tok-42"},
	}}
	return newManager(provider, store, integrations, testConfig(), zap.NewNop())
}

func TestCreateChannel(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	ch, err := m.CreateChannel(context.Background(), "cal-1", 7, 42)
	require.NoError(t, err)

	assert.NotEmpty(t, ch.ID)
	assert.Equal(t, "res-cal-1", ch.ResourceID)
	assert.Equal(t, int64(42), ch.IntegrationID)

	require.Len(t, provider.watches, 1)
	assert.Equal(t, "https://nido.example.com/webhooks/calendar", provider.watches[0].Address)

	// Persisted and in the cache.
	assert.Contains(t, store.channels, ch.ID)
	cached, ok := m.Lookup(ch.ID)
	require.True(t, ok)
	assert.Equal(t, ch.ID, cached.ID)
}

func TestCreateChannel_WatchErrorNotCached(t *testing.T) {
	provider := &fakeProvider{watchErr: fmt.Errorf("watch: quota exceeded")}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	_, err := m.CreateChannel(context.Background(), "cal-1", 7, 42)
	require.Error(t, err)
	assert.Empty(t, store.channels)
}

func TestSetupCalendarWebhooks(t *testing.T) {
	provider := &fakeProvider{calendars: []calendarclient.Calendar{
		{ID: "cal-1", Summary: "Family"},
		{ID: "cal-2", Summary: "Bills"},
	}}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	require.NoError(t, m.SetupCalendarWebhooks(context.Background(), 7, 42))
	assert.Len(t, store.channels, 2)
	assert.Len(t, provider.watches, 2)
}

func TestSetupCalendarWebhooks_RejectsForeignIntegration(t *testing.T) {
	m := newTestManager(&fakeProvider{}, newFakeChannelStore())

	err := m.SetupCalendarWebhooks(context.Background(), 999, 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestStopChannel(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	ch, err := m.CreateChannel(context.Background(), "cal-1", 7, 42)
	require.NoError(t, err)

	require.NoError(t, m.StopChannel(context.Background(), ch.ID))

	assert.Equal(t, []string{ch.ID}, provider.stopped)
	assert.Empty(t, store.channels)
	_, ok := m.Lookup(ch.ID)
	assert.False(t, ok)
}

func TestStopChannel_Unknown(t *testing.T) {
	m := newTestManager(&fakeProvider{}, newFakeChannelStore())
	err := m.StopChannel(context.Background(), "no-such-channel")
	require.Error(t, err)
}

func TestLoadExisting(t *testing.T) {
	store := newFakeChannelStore()
	store.channels["ch-1"] = &Channel{ID: "ch-1", CalendarID: "cal-1", IntegrationID: 42}

	m := newTestManager(&fakeProvider{}, store)
	require.NoError(t, m.LoadExisting(context.Background()))

	ch, ok := m.Lookup("ch-1")
	require.True(t, ok)
	assert.Equal(t, "cal-1", ch.CalendarID)
}

func TestRenewDue(t *testing.T) {
	// The first watch expires inside the renewal buffer, forcing a swap.
	provider := &fakeProvider{watchTTL: time.Hour}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	old, err := m.CreateChannel(context.Background(), "cal-1", 7, 42)
	require.NoError(t, err)

	require.NoError(t, m.RenewDue(context.Background()))

	assert.Equal(t, []string{old.ID}, provider.stopped)
	require.Len(t, store.channels, 1)
	for id := range store.channels {
		assert.NotEqual(t, old.ID, id, "renewal must issue a fresh channel id")
	}
	_, ok := m.Lookup(old.ID)
	assert.False(t, ok)
}

func TestRenewDue_FreshChannelUntouched(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeChannelStore()
	m := newTestManager(provider, store)

	ch, err := m.CreateChannel(context.Background(), "cal-1", 7, 42)
	require.NoError(t, err)

	require.NoError(t, m.RenewDue(context.Background()))

	assert.Empty(t, provider.stopped)
	cached, ok := m.Lookup(ch.ID)
	require.True(t, ok)
	assert.Equal(t, ch.ID, cached.ID)
}
