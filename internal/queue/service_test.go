package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/pkg/snowflake"
)

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	node, err := snowflake.NewNode()
	require.NoError(t, err)
	return &Service{
		store:       store,
		node:        node,
		maxAttempts: 3,
		logger:      zap.NewNop(),
	}
}

func TestEnqueue(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	id, err := svc.Enqueue(context.Background(), EventTypeReaction, `{"emoji":"📅"}`)
	require.NoError(t, err)
	assert.NotZero(t, id)

	entry := store.entries[id]
	require.NotNil(t, entry)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, 0, entry.Attempts)
	assert.Equal(t, 3, entry.MaxAttempts)
}

func TestEnqueue_RejectsUnknownEventType(t *testing.T) {
	svc := newTestService(t, newMockStore())

	_, err := svc.Enqueue(context.Background(), EventType("webhook"), `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized event type")
}

func TestEnqueue_EmptyPayloadDefaults(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	id, err := svc.Enqueue(context.Background(), EventTypeScheduled, "")
	require.NoError(t, err)
	assert.Equal(t, "{}", store.entries[id].Payload)
}

func TestStats_BacklogHealth(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	for i := 0; i < 150; i++ {
		_, err := svc.Enqueue(context.Background(), EventTypeMessage, `{}`)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150), stats.Backlog)
	assert.Equal(t, HealthWarning, stats.Health)

	require.Len(t, stats.Stats, 1)
	assert.Equal(t, StatusPending, stats.Stats[0].Status)
	assert.Equal(t, int64(150), stats.Stats[0].Count)
}

func TestStats_HealthyBelowThreshold(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	for i := 0; i < 5; i++ {
		_, err := svc.Enqueue(context.Background(), EventTypeMessage, `{}`)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthHealthy, stats.Health)
}
