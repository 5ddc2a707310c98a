package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nidohq/nido-sync/internal/queue"
	"github.com/nidohq/nido-sync/pkg/testhelper"
)

func TestGormStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pg, err := testhelper.SetupPostgres(ctx)
	require.NoError(t, err)
	defer func() {
		if err := pg.Teardown(ctx); err != nil {
			t.Logf("failed to teardown container: %v", err)
		}
	}()

	db, err := gorm.Open(postgres.Open(pg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&queue.Entry{}, &queue.LogEntry{})
	require.NoError(t, err)

	store := queue.NewGormStore(db)

	newEntry := func(id int64) *queue.Entry {
		return &queue.Entry{
			ID:          id,
			EventType:   queue.EventTypeReaction,
			Payload:     `{"emoji":"📅","messageId":"msg"}`,
			Status:      queue.StatusPending,
			MaxAttempts: 3,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
	}

	t.Run("ClaimMarksProcessing", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, newEntry(1)))

		claimed, err := store.ClaimBatch(ctx, 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, queue.StatusProcessing, claimed[0].Status)
		assert.Equal(t, 1, claimed[0].Attempts)
		assert.NotNil(t, claimed[0].ProcessedAt)

		// Already claimed: a second pass finds nothing.
		again, err := store.ClaimBatch(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("ConcurrentClaimsDoNotOverlap", func(t *testing.T) {
		for i := int64(100); i < 120; i++ {
			require.NoError(t, store.Insert(ctx, newEntry(i)))
		}

		const workers = 4
		var mu sync.Mutex
		seen := make(map[int64]int)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					claimed, err := store.ClaimBatch(ctx, 3)
					if err != nil || len(claimed) == 0 {
						return
					}
					mu.Lock()
					for _, e := range claimed {
						seen[e.ID]++
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 20)
		for id, n := range seen {
			assert.Equal(t, 1, n, fmt.Sprintf("entry %d claimed %d times", id, n))
		}
	})

	t.Run("MarkCompletedIsTerminal", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, newEntry(200)))

		claimed, err := store.ClaimBatch(ctx, 1)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		require.NoError(t, store.MarkCompleted(ctx, claimed[0].ID))

		again, err := store.ClaimBatch(ctx, 10)
		require.NoError(t, err)
		for _, e := range again {
			assert.NotEqual(t, claimed[0].ID, e.ID)
		}

		var stored queue.Entry
		require.NoError(t, db.First(&stored, claimed[0].ID).Error)
		assert.Equal(t, queue.StatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)
	})

	t.Run("MarkRetryExhaustionFails", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, newEntry(300)))

		var last queue.Entry
		for i := 0; i < 3; i++ {
			claimed, err := store.ClaimBatch(ctx, 1)
			require.NoError(t, err)
			require.Len(t, claimed, 1, "attempt %d should still claim", i+1)
			last = claimed[0]
			require.NoError(t, store.MarkRetry(ctx, last, fmt.Errorf("boom %d", i+1)))
		}
		assert.Equal(t, 3, last.Attempts)

		// Attempts exhausted: terminal failed, never claimed again.
		claimed, err := store.ClaimBatch(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, claimed)

		var stored queue.Entry
		require.NoError(t, db.First(&stored, int64(300)).Error)
		assert.Equal(t, queue.StatusFailed, stored.Status)
		assert.Equal(t, "boom 3", stored.LastError)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		counts, err := store.CountByStatus(ctx)
		require.NoError(t, err)
		assert.NotZero(t, counts[queue.StatusFailed])
		assert.NotZero(t, counts[queue.StatusCompleted])
	})

	t.Run("AppendLog", func(t *testing.T) {
		err := store.AppendLog(ctx, &queue.LogEntry{
			MessageID:     "msg-1",
			ReactionEmoji: "📅",
			ParsedType:    "calendar",
			Confidence:    0.6,
			Language:      "en",
			Success:       true,
			ProcessingMs:  12,
			CreatedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&queue.LogEntry{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
