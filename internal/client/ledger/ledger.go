// Package ledger is the durable local store of chat messages. Every
// conversational turn is written here before (and independently of) network
// confirmation, keyed by calendar day and tagged with a synced flag that
// flips false→true only after the backend has durably accepted the
// conversation.
//
// The ledger owns its own housekeeping: it watches storage quota usage and
// evicts old history under pressure. Eviction only ever touches records that
// are both old and already synced — losing a not-yet-confirmed message is
// treated as worse than a failed write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/common"
	"github.com/catusdev/catus-client/internal/dbx"
	"github.com/catusdev/catus-client/internal/logging"
)

// Store provides queryable, durable access to locally recorded chat messages.
type Store struct {
	db        dbx.DBTX
	estimator QuotaEstimator
	log       logging.Logger

	// test seams
	nowMillis func() int64
	appendFn  func(ctx context.Context, date string, msg models.ChatMessage, synced bool) error
}

// NewStore builds a ledger over db. The estimator drives quota-based
// eviction; pass a FileEstimator in production.
func NewStore(db dbx.DBTX, estimator QuotaEstimator, log logging.Logger) *Store {
	s := &Store{
		db:        db,
		estimator: estimator,
		log:       log,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
	s.appendFn = s.append
	return s
}

// Append records a message for the given date. New records default to
// synced=false; the synced flag is only set true here when replaying history
// that the backend already holds.
func (s *Store) Append(ctx context.Context, date string, msg models.ChatMessage, synced bool) error {
	return s.appendFn(ctx, date, msg, synced)
}

func (s *Store) append(ctx context.Context, date string, msg models.ChatMessage, synced bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (date, role, content, timestamp, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, date, string(msg.Role), msg.Content, msg.Timestamp, synced, s.nowMillis())
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// ListByDate returns the messages recorded for date in insertion order.
// Always re-reads from durable storage; never served from memory.
func (s *Store) ListByDate(ctx context.Context, date string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, timestamp FROM chat_messages
		WHERE date = ? ORDER BY id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to select chat messages: %w", err)
	}
	defer rows.Close()

	var result []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var role string
		if err := rows.Scan(&role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListUnsynced returns every not-yet-confirmed message, grouped by date.
func (s *Store) ListUnsynced(ctx context.Context) ([]models.UnsyncedBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, role, content, timestamp FROM chat_messages
		WHERE synced = 0 ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced messages: %w", err)
	}
	defer rows.Close()

	var batches []models.UnsyncedBatch
	for rows.Next() {
		var date, role string
		var m models.ChatMessage
		if err := rows.Scan(&date, &role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)

		if n := len(batches); n > 0 && batches[n-1].Date == date {
			batches[n-1].Messages = append(batches[n-1].Messages, m)
		} else {
			batches = append(batches, models.UnsyncedBatch{Date: date, Messages: []models.ChatMessage{m}})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// MarkSynced flips every record of the given date to synced. Idempotent:
// already-synced records are untouched, and the flag never flips back.
func (s *Store) MarkSynced(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages SET synced = 1 WHERE date = ? AND synced = 0
	`, date)
	if err != nil {
		return fmt.Errorf("failed to mark messages synced: %w", err)
	}
	return nil
}

// DeleteByDate removes every record of the given date.
func (s *Store) DeleteByDate(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}

// ClearAll removes every record.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages`)
	if err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	return nil
}

// CleanupOldMessages deletes records older than daysToKeep that have already
// been synced, returning the number removed. Unsynced records are never
// deleted, regardless of age.
func (s *Store) CleanupOldMessages(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := s.nowMillis() - int64(daysToKeep)*24*int64(time.Hour/time.Millisecond)

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_messages WHERE created_at < ? AND synced = 1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up old messages: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// CleanupResult reports what an automatic cleanup pass did.
type CleanupResult struct {
	Cleaned       bool
	DeletedCount  int64
	NewPercentage float64
}

// AutoCleanupIfNeeded inspects quota usage and evicts synced history under
// pressure: at ≥80% usage it runs a 30-day cleanup, re-checks, and if usage
// is still ≥75% runs an additional 15-day cleanup. Returns the combined
// deleted count.
func (s *Store) AutoCleanupIfNeeded(ctx context.Context) (CleanupResult, error) {
	estimate, err := s.estimator.Estimate(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("failed to estimate storage usage: %w", err)
	}

	if estimate.Percentage < 80 {
		return CleanupResult{NewPercentage: estimate.Percentage}, nil
	}

	s.log.Warn(ctx, "storage usage high, running cleanup", "usage_pct", estimate.Percentage)

	deleted, err := s.CleanupOldMessages(ctx, 30)
	if err != nil {
		return CleanupResult{}, err
	}

	recheck, err := s.estimator.Estimate(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("failed to re-estimate storage usage: %w", err)
	}
	if recheck.Percentage >= 75 {
		additional, err := s.CleanupOldMessages(ctx, 15)
		if err != nil {
			return CleanupResult{}, err
		}
		deleted += additional
		recheck, err = s.estimator.Estimate(ctx)
		if err != nil {
			return CleanupResult{}, fmt.Errorf("failed to re-estimate storage usage: %w", err)
		}
	}

	s.log.Info(ctx, "cleanup complete", "deleted", deleted, "usage_pct", recheck.Percentage)
	return CleanupResult{Cleaned: true, DeletedCount: deleted, NewPercentage: recheck.Percentage}, nil
}

// SaveWithQuotaCheck appends a message after running the automatic cleanup
// pass. On a hard quota-exceeded failure it runs an emergency 7-day cleanup
// and retries the append exactly once; a second failure propagates.
func (s *Store) SaveWithQuotaCheck(ctx context.Context, date string, msg models.ChatMessage) error {
	if _, err := s.AutoCleanupIfNeeded(ctx); err != nil {
		// Housekeeping trouble must not block the write itself.
		s.log.Warn(ctx, "auto cleanup failed", "error", err)
	}

	err := s.Append(ctx, date, msg, false)
	if err == nil {
		return nil
	}
	if !isQuotaExceeded(err) {
		return err
	}

	s.log.Error(ctx, "storage quota exceeded, forcing aggressive cleanup")
	if _, cleanupErr := s.CleanupOldMessages(ctx, 7); cleanupErr != nil {
		return fmt.Errorf("emergency cleanup failed: %w", cleanupErr)
	}
	return s.Append(ctx, date, msg, false)
}

// isQuotaExceeded recognizes a write rejected for lack of space: either our
// sentinel or SQLite's SQLITE_FULL ("database or disk is full").
func isQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrQuotaExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "database or disk is full")
}
