package queue

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store is the durable queue table. The in-process Processor is the only
// writer of entry status; cross-instance exclusivity rests entirely on
// ClaimBatch being a single atomic statement.
type Store interface {
	// Insert persists a new pending entry.
	Insert(ctx context.Context, entry *Entry) error

	// ClaimBatch atomically selects up to limit eligible entries and marks
	// them processing, returning exactly the rows this call claimed.
	ClaimBatch(ctx context.Context, limit int) ([]Entry, error)

	// MarkCompleted transitions a processing entry to its terminal success state.
	MarkCompleted(ctx context.Context, id int64) error

	// MarkRetry records a failed attempt: back to pending while attempts
	// remain, terminal failed once they are exhausted.
	MarkRetry(ctx context.Context, entry Entry, cause error) error

	// AppendLog writes one classification audit record.
	AppendLog(ctx context.Context, log *LogEntry) error

	// CountByStatus returns entry counts grouped by status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, entry *Entry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ClaimBatch filters and marks rows in one conditional update so that no two
// concurrent callers can claim the same entry. A separate select-then-update
// would allow double-claiming under multiple processor instances.
func (s *GormStore) ClaimBatch(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Raw(
		`UPDATE queue_entries
		 SET status = ?, attempts = attempts + 1, processed_at = ?, updated_at = ?
		 WHERE id IN (
		     SELECT id FROM queue_entries
		     WHERE status = ? AND attempts < max_attempts
		     ORDER BY created_at ASC
		     LIMIT ?
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		StatusProcessing, now, now,
		StatusPending,
		limit,
	).Scan(&entries).Error

	return entries, err
}

func (s *GormStore) MarkCompleted(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"completed_at": now,
			"updated_at":   now,
			"last_error":   nil,
		}).Error
}

func (s *GormStore) MarkRetry(ctx context.Context, entry Entry, cause error) error {
	next := StatusPending
	if entry.Attempts >= entry.MaxAttempts {
		next = StatusFailed
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", entry.ID, StatusProcessing).
		Updates(map[string]any{
			"status":     next,
			"last_error": cause.Error(),
			"updated_at": now,
		}).Error
}

func (s *GormStore) AppendLog(ctx context.Context, log *LogEntry) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *GormStore) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	type row struct {
		Status Status
		Count  int64
	}

	var rows []row
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
