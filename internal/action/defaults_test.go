package action

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/classifier"
	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/event"
)

type memEventRepo struct {
	saved []*event.SchedulingEvent
}

func (m *memEventRepo) FindByID(ctx context.Context, id int64) (*event.SchedulingEvent, error) {
	return nil, nil
}

func (m *memEventRepo) FindByExternalID(ctx context.Context, integrationID int64, externalID string) (*event.SchedulingEvent, error) {
	return nil, nil
}

func (m *memEventRepo) Save(ctx context.Context, ev *event.SchedulingEvent) error {
	if ev.ID == 0 {
		ev.ID = int64(len(m.saved) + 1)
	}
	m.saved = append(m.saved, ev)
	return nil
}

func (m *memEventRepo) SetExternalID(ctx context.Context, id int64, externalID string) error {
	return nil
}

func (m *memEventRepo) MarkSynced(ctx context.Context, id int64) error { return nil }

func (m *memEventRepo) MarkSyncError(ctx context.Context, id int64, msg string) error { return nil }

type memPusher struct {
	pushed []*event.SchedulingEvent
	err    error
}

func (m *memPusher) Push(ctx context.Context, ev *event.SchedulingEvent) error {
	if m.err != nil {
		return m.err
	}
	m.pushed = append(m.pushed, ev)
	return nil
}

func newCalendarActions(repo *memEventRepo, pusher *memPusher) *CalendarActions {
	cfg := &config.Config{DefaultIntegrationID: 42, DefaultCalendarID: "primary"}
	return NewCalendarActions(repo, pusher, cfg, zap.NewNop())
}

func TestCreateCalendarEventAction(t *testing.T) {
	repo := &memEventRepo{}
	pusher := &memPusher{}
	actions := newCalendarActions(repo, pusher)

	err := actions.CreateCalendarEventAction(context.Background(), Request{
		MessageID:  "msg-1",
		Type:       classifier.IntentCalendar,
		Confidence: 0.6,
		Data: map[string]any{
			"title": "Dentist on 25/12/2025 at 14:00",
			"date":  "25/12/2025",
			"time":  "14:00",
		},
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	ev := repo.saved[0]
	assert.Equal(t, int64(42), ev.IntegrationID)
	assert.Equal(t, "primary", ev.CalendarID)
	assert.Equal(t, time.Date(2025, 12, 25, 14, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, ev.Start.Add(time.Hour), ev.End)
	assert.Contains(t, ev.Description, "msg-1")

	require.Len(t, pusher.pushed, 1)
}

func TestCreateCalendarEventAction_MissingTitle(t *testing.T) {
	actions := newCalendarActions(&memEventRepo{}, &memPusher{})

	err := actions.CreateCalendarEventAction(context.Background(), Request{
		MessageID: "msg-1",
		Data:      map[string]any{},
	})
	require.Error(t, err)
}

func TestCreateCalendarEventAction_PushFailureStillSucceeds(t *testing.T) {
	repo := &memEventRepo{}
	pusher := &memPusher{err: fmt.Errorf("provider down")}
	actions := newCalendarActions(repo, pusher)

	err := actions.CreateCalendarEventAction(context.Background(), Request{
		MessageID: "msg-1",
		Data:      map[string]any{"title": "Dinner"},
	})

	// The local record is authoritative; push failure parks, not fails.
	require.NoError(t, err)
	assert.Len(t, repo.saved, 1)
}

func TestResolveStart(t *testing.T) {
	now := time.Now().UTC()

	t.Run("DateAndTime", func(t *testing.T) {
		start := resolveStart(map[string]any{"date": "5/3/2026", "time": "09:30"})
		assert.Equal(t, time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC), start)
	})

	t.Run("DashedDate", func(t *testing.T) {
		start := resolveStart(map[string]any{"date": "5-3-2026"})
		assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), start)
	})

	t.Run("TimeOnly", func(t *testing.T) {
		start := resolveStart(map[string]any{"time": "09:30"})
		assert.Equal(t, 9, start.Hour())
		assert.Equal(t, 30, start.Minute())
	})

	t.Run("UnparseableDateFallsBack", func(t *testing.T) {
		start := resolveStart(map[string]any{"date": "13/45/2026"})
		assert.WithinDuration(t, now.Add(time.Hour), start, time.Minute)
	})

	t.Run("NoHints", func(t *testing.T) {
		start := resolveStart(map[string]any{})
		assert.WithinDuration(t, now.Add(time.Hour), start, time.Minute)
	})
}
