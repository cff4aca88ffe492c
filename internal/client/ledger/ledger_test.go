package ledger

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/common"
	"github.com/catusdev/catus-client/internal/logging"
)

// fakeEstimator returns a scripted sequence of usage percentages; the last
// value repeats once the script is exhausted.
type fakeEstimator struct {
	percentages []float64
	calls       int
}

func (f *fakeEstimator) Estimate(ctx context.Context) (QuotaEstimate, error) {
	i := f.calls
	if i >= len(f.percentages) {
		i = len(f.percentages) - 1
	}
	f.calls++
	return QuotaEstimate{Usage: 0, Quota: 100, Percentage: f.percentages[i]}, nil
}

func setupStore(t *testing.T, est QuotaEstimator) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE chat_messages (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  date       TEXT    NOT NULL,
  role       TEXT    NOT NULL,
  content    TEXT    NOT NULL,
  timestamp  TEXT    NOT NULL,
  synced     INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
CREATE INDEX idx_chat_messages_date ON chat_messages (date);
CREATE INDEX idx_chat_messages_synced ON chat_messages (synced);
CREATE INDEX idx_chat_messages_created_at ON chat_messages (created_at);
`)
	require.NoError(t, err)

	if est == nil {
		est = &fakeEstimator{percentages: []float64{0}}
	}
	return NewStore(db, est, logging.New(io.Discard, false)), db
}

func msg(role models.Role, content string) models.ChatMessage {
	return models.ChatMessage{Role: role, Content: content, Timestamp: "2026-08-31T10:00:00Z"}
}

func countMessages(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM chat_messages`).Scan(&n))
	return n
}

func syncedFlags(t *testing.T, db *sql.DB, date string) []bool {
	t.Helper()
	rows, err := db.Query(`SELECT synced FROM chat_messages WHERE date=? ORDER BY id`, date)
	require.NoError(t, err)
	defer rows.Close()

	var flags []bool
	for rows.Next() {
		var s bool
		require.NoError(t, rows.Scan(&s))
		flags = append(flags, s)
	}
	require.NoError(t, rows.Err())
	return flags
}

func TestAppendAndListByDate_RoundTrip(t *testing.T) {
	s, _ := setupStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleUser, "hello"), false))
	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleAssistant, "hi there"), false))
	require.NoError(t, s.Append(ctx, "2026-08-30", msg(models.RoleUser, "yesterday"), false))

	got, err := s.ListByDate(ctx, "2026-08-31")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.RoleUser, got[0].Role)
	assert.Equal(t, "hello", got[0].Content)
	assert.Equal(t, models.RoleAssistant, got[1].Role)
	assert.Equal(t, "hi there", got[1].Content)
}

func TestListByDate_EmptyDate(t *testing.T) {
	s, _ := setupStore(t, nil)

	got, err := s.ListByDate(context.Background(), "2026-01-01")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListUnsynced_GroupsByDate(t *testing.T) {
	s, _ := setupStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "2026-08-30", msg(models.RoleUser, "a"), false))
	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleUser, "b"), false))
	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleAssistant, "c"), false))
	require.NoError(t, s.Append(ctx, "2026-08-29", msg(models.RoleUser, "d"), true)) // already synced

	batches, err := s.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "2026-08-30", batches[0].Date)
	assert.Len(t, batches[0].Messages, 1)
	assert.Equal(t, "2026-08-31", batches[1].Date)
	assert.Len(t, batches[1].Messages, 2)
}

func TestMarkSynced_OnlyTargetDate(t *testing.T) {
	s, db := setupStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleUser, "a"), false))
	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleAssistant, "b"), false))
	require.NoError(t, s.Append(ctx, "2026-08-30", msg(models.RoleUser, "c"), false))

	require.NoError(t, s.MarkSynced(ctx, "2026-08-31"))

	assert.Equal(t, []bool{true, true}, syncedFlags(t, db, "2026-08-31"))
	assert.Equal(t, []bool{false}, syncedFlags(t, db, "2026-08-30"))
}

func TestMarkSynced_Idempotent(t *testing.T) {
	s, db := setupStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleUser, "a"), false))

	require.NoError(t, s.MarkSynced(ctx, "2026-08-31"))
	first := syncedFlags(t, db, "2026-08-31")

	require.NoError(t, s.MarkSynced(ctx, "2026-08-31"))
	assert.Equal(t, first, syncedFlags(t, db, "2026-08-31"))
}

func TestDeleteByDateAndClearAll(t *testing.T) {
	s, db := setupStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "2026-08-31", msg(models.RoleUser, "a"), false))
	require.NoError(t, s.Append(ctx, "2026-08-30", msg(models.RoleUser, "b"), false))

	require.NoError(t, s.DeleteByDate(ctx, "2026-08-31"))
	assert.Equal(t, 1, countMessages(t, db))

	require.NoError(t, s.ClearAll(ctx))
	assert.Equal(t, 0, countMessages(t, db))
}

func TestCleanupOldMessages_SparesUnsynced(t *testing.T) {
	s, db := setupStore(t, nil)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	s.nowMillis = func() int64 { return now }

	old := now - 40*24*int64(time.Hour/time.Millisecond)
	fresh := now - 2*24*int64(time.Hour/time.Millisecond)

	seed := func(date string, synced bool, createdAt int64) {
		_, err := db.Exec(`
			INSERT INTO chat_messages (date, role, content, timestamp, synced, created_at)
			VALUES (?, 'user', 'x', 't', ?, ?)`, date, synced, createdAt)
		require.NoError(t, err)
	}

	seed("2026-07-20", true, old)   // old + synced → evicted
	seed("2026-07-21", false, old)  // old but unsynced → kept
	seed("2026-08-29", true, fresh) // fresh → kept

	deleted, err := s.CleanupOldMessages(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 2, countMessages(t, db))
	assert.Equal(t, []bool{false}, syncedFlags(t, db, "2026-07-21"))
}

func TestAutoCleanupIfNeeded_BelowThresholdIsNoop(t *testing.T) {
	est := &fakeEstimator{percentages: []float64{42}}
	s, _ := setupStore(t, est)

	res, err := s.AutoCleanupIfNeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cleaned)
	assert.Zero(t, res.DeletedCount)
	assert.Equal(t, 42.0, res.NewPercentage)
	assert.Equal(t, 1, est.calls)
}

func TestAutoCleanupIfNeeded_TwoPassEviction(t *testing.T) {
	// 85% triggers the 30-day pass; still 78% after, so the 15-day pass runs too.
	est := &fakeEstimator{percentages: []float64{85, 78, 60}}
	s, db := setupStore(t, est)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	s.nowMillis = func() int64 { return now }

	day := int64(24 * time.Hour / time.Millisecond)
	seed := func(synced bool, ageDays int64) {
		_, err := db.Exec(`
			INSERT INTO chat_messages (date, role, content, timestamp, synced, created_at)
			VALUES ('2026-07-01', 'user', 'x', 't', ?, ?)`, synced, now-ageDays*day)
		require.NoError(t, err)
	}

	seed(true, 40)  // removed by the 30-day pass
	seed(true, 20)  // removed by the 15-day pass
	seed(false, 40) // unsynced: survives both passes
	seed(true, 3)   // too fresh for either pass

	res, err := s.AutoCleanupIfNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cleaned)
	assert.Equal(t, int64(2), res.DeletedCount)
	assert.Equal(t, 60.0, res.NewPercentage)
	assert.Equal(t, 2, countMessages(t, db))
}

func TestSaveWithQuotaCheck_PlainAppend(t *testing.T) {
	s, db := setupStore(t, nil)

	require.NoError(t, s.SaveWithQuotaCheck(context.Background(), "2026-08-31", msg(models.RoleUser, "a")))
	assert.Equal(t, 1, countMessages(t, db))
	assert.Equal(t, []bool{false}, syncedFlags(t, db, "2026-08-31"))
}

func TestSaveWithQuotaCheck_EmergencyCleanupAndRetry(t *testing.T) {
	s, db := setupStore(t, nil)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	s.nowMillis = func() int64 { return now }

	// synced message well past the 7-day emergency cutoff
	_, err := db.Exec(`
		INSERT INTO chat_messages (date, role, content, timestamp, synced, created_at)
		VALUES ('2026-08-01', 'user', 'old', 't', 1, ?)`,
		now-10*24*int64(time.Hour/time.Millisecond))
	require.NoError(t, err)

	realAppend := s.appendFn
	failures := 1
	s.appendFn = func(ctx context.Context, date string, m models.ChatMessage, synced bool) error {
		if failures > 0 {
			failures--
			return common.ErrQuotaExceeded
		}
		return realAppend(ctx, date, m, synced)
	}

	require.NoError(t, s.SaveWithQuotaCheck(ctx, "2026-08-31", msg(models.RoleUser, "new")))

	// the old synced record was evicted and the new one landed
	assert.Equal(t, 1, countMessages(t, db))
	got, err := s.ListByDate(ctx, "2026-08-31")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}

func TestSaveWithQuotaCheck_SecondFailurePropagates(t *testing.T) {
	s, _ := setupStore(t, nil)

	s.appendFn = func(ctx context.Context, date string, m models.ChatMessage, synced bool) error {
		return common.ErrQuotaExceeded
	}

	err := s.SaveWithQuotaCheck(context.Background(), "2026-08-31", msg(models.RoleUser, "a"))
	require.ErrorIs(t, err, common.ErrQuotaExceeded)
}

func TestSaveWithQuotaCheck_NonQuotaErrorNotRetried(t *testing.T) {
	s, _ := setupStore(t, nil)
	boom := errors.New("disk detached")

	calls := 0
	s.appendFn = func(ctx context.Context, date string, m models.ChatMessage, synced bool) error {
		calls++
		return boom
	}

	err := s.SaveWithQuotaCheck(context.Background(), "2026-08-31", msg(models.RoleUser, "a"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
