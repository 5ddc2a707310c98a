package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/integration"
	"github.com/nidohq/nido-sync/pkg/calendarclient"
)

// Provider is the subset of the calendar client the manager needs.
type Provider interface {
	ListCalendars(ctx context.Context, token string) ([]calendarclient.Calendar, error)
	Watch(ctx context.Context, token string, req calendarclient.WatchRequest) (*calendarclient.WatchResult, error)
	StopChannel(ctx context.Context, token string, channelID, resourceID string) error
}

// Manager owns the webhook channel lifecycle: create on setup, renew near
// expiration, stop on teardown.
type Manager struct {
	provider     Provider
	store        Store
	integrations integration.Store
	logger       *zap.Logger

	callbackURL     string
	ttl             time.Duration
	renewalBuffer   time.Duration
	renewalInterval time.Duration

	mu       sync.RWMutex
	channels map[string]*Channel
}

func NewManager(
	provider *calendarclient.Client,
	store Store,
	integrations integration.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Manager {
	return newManager(provider, store, integrations, cfg, logger)
}

func newManager(provider Provider, store Store, integrations integration.Store, cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		provider:        provider,
		store:           store,
		integrations:    integrations,
		logger:          logger.Named("channel.manager"),
		callbackURL:     cfg.WebhookCallbackURL,
		ttl:             cfg.ChannelTTL,
		renewalBuffer:   cfg.ChannelRenewalBuffer,
		renewalInterval: cfg.ChannelRenewalInterval,
		channels:        make(map[string]*Channel),
	}
}

// LoadExisting rehydrates the in-memory index from durable storage so renewal
// and stop work across restarts without re-creating valid channels.
func (m *Manager) LoadExisting(ctx context.Context) error {
	stored, err := m.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load webhook channels: %w", err)
	}

	m.mu.Lock()
	m.channels = make(map[string]*Channel, len(stored))
	for _, ch := range stored {
		m.channels[ch.ID] = ch
	}
	m.mu.Unlock()

	m.logger.Info("webhook_channels_loaded", zap.Int("count", len(stored)))
	return nil
}

// SetupCalendarWebhooks creates one channel per remote calendar of the
// integration.
func (m *Manager) SetupCalendarWebhooks(ctx context.Context, userID, integrationID int64) error {
	integ, err := m.integrations.Find(ctx, integrationID)
	if err != nil {
		return fmt.Errorf("load integration %d: %w", integrationID, err)
	}
	if integ.UserID != userID {
		return fmt.Errorf("integration %d does not belong to user %d", integrationID, userID)
	}

	calendars, err := m.provider.ListCalendars(ctx, integ.AccessToken)
	if err != nil {
		return fmt.Errorf("list calendars: %w", err)
	}

	for _, cal := range calendars {
		if _, err := m.CreateChannel(ctx, cal.ID, userID, integrationID); err != nil {
			m.logger.Error("webhook_channel_setup_failed",
				zap.String("calendar_id", cal.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CreateChannel registers one time-bounded watch and records the channel
// durably before caching it.
func (m *Manager) CreateChannel(ctx context.Context, calendarID string, userID, integrationID int64) (*Channel, error) {
	integ, err := m.integrations.Find(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("load integration %d: %w", integrationID, err)
	}

	channelID := uuid.NewString()
	result, err := m.provider.Watch(ctx, integ.AccessToken, calendarclient.WatchRequest{
		ChannelID:  channelID,
		CalendarID: calendarID,
		Address:    m.callbackURL,
		TTL:        m.ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("register watch for %s: %w", calendarID, err)
	}

	now := time.Now().UTC()
	ch := &Channel{
		ID:            channelID,
		CalendarID:    calendarID,
		UserID:        userID,
		IntegrationID: integrationID,
		ResourceID:    result.ResourceID,
		Expiration:    result.Expiration,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Durable store first: the cache is never the only holder of a channel.
	if err := m.store.Save(ctx, ch); err != nil {
		return nil, fmt.Errorf("persist channel %s: %w", channelID, err)
	}

	m.mu.Lock()
	m.channels[ch.ID] = ch
	m.mu.Unlock()

	m.logger.Info("webhook_channel_created",
		zap.String("channel_id", ch.ID),
		zap.String("calendar_id", calendarID),
		zap.Time("expiration", ch.Expiration),
	)
	return ch, nil
}

// StopChannel deregisters with the provider and removes the record.
func (m *Manager) StopChannel(ctx context.Context, channelID string) error {
	ch, ok := m.Lookup(channelID)
	if !ok {
		return fmt.Errorf("unknown channel: %s", channelID)
	}

	integ, err := m.integrations.Find(ctx, ch.IntegrationID)
	if err != nil {
		return fmt.Errorf("load integration %d: %w", ch.IntegrationID, err)
	}

	if err := m.provider.StopChannel(ctx, integ.AccessToken, ch.ID, ch.ResourceID); err != nil {
		return fmt.Errorf("stop channel %s: %w", channelID, err)
	}

	if err := m.store.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}

	m.mu.Lock()
	delete(m.channels, channelID)
	m.mu.Unlock()

	m.logger.Info("webhook_channel_stopped", zap.String("channel_id", channelID))
	return nil
}

// Lookup resolves a channel id from the cache. Unknown ids are a normal
// outcome: renewals retire ids while provider notifications are in flight.
func (m *Manager) Lookup(channelID string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[channelID]
	return ch, ok
}

// Run drives the renewal scheduler until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if err := m.RenewDue(ctx); err != nil {
		m.logger.Error("channel_renewal_initial_failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.renewalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RenewDue(ctx); err != nil {
				m.logger.Error("channel_renewal_failed", zap.Error(err))
			}
		}
	}
}

// RenewDue replaces every channel within the renewal buffer of its
// expiration. The swap is stop-then-create and not atomic: a crash between
// the two steps leaves that calendar unwatched until the next cycle. The
// provider offers no parallel registration, so this gap is accepted.
func (m *Manager) RenewDue(ctx context.Context) error {
	deadline := time.Now().UTC().Add(m.renewalBuffer)

	m.mu.RLock()
	var due []*Channel
	for _, ch := range m.channels {
		if !ch.Expiration.After(deadline) {
			due = append(due, ch)
		}
	}
	m.mu.RUnlock()

	for _, ch := range due {
		if err := m.renew(ctx, ch); err != nil {
			m.logger.Error("webhook_channel_renew_failed",
				zap.String("channel_id", ch.ID),
				zap.String("calendar_id", ch.CalendarID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (m *Manager) renew(ctx context.Context, ch *Channel) error {
	if err := m.StopChannel(ctx, ch.ID); err != nil {
		return err
	}

	replacement, err := m.CreateChannel(ctx, ch.CalendarID, ch.UserID, ch.IntegrationID)
	if err != nil {
		return fmt.Errorf("recreate channel for %s: %w", ch.CalendarID, err)
	}

	m.logger.Info("webhook_channel_renewed",
		zap.String("old_channel_id", ch.ID),
		zap.String("new_channel_id", replacement.ID),
		zap.String("calendar_id", ch.CalendarID),
	)
	return nil
}
