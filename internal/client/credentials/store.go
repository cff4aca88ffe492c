// Package credentials persists the session's credential record: the
// access/refresh token pair and a cached copy of the user profile.
//
// Values live in a namespaced key-value table in the local database.
// Structured values round-trip through JSON; the raw bearer tokens are stored
// as plain strings to avoid quoting artifacts. No operation ever propagates a
// storage failure: errors are logged and reported as a nil value or a false
// success flag, so a broken local store degrades the session instead of
// crashing the caller.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/common"
	"github.com/catusdev/catus-client/internal/dbx"
	"github.com/catusdev/catus-client/internal/logging"
)

// Well-known credential keys (stored under the common.StoragePrefix namespace).
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
)

// Store is a namespaced key-value store over the local database.
type Store struct {
	db  dbx.DBTX
	log logging.Logger
}

func NewStore(db dbx.DBTX, log logging.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) namespaced(key string) string {
	return common.StoragePrefix + key
}

// GetRaw returns the raw string stored under key, or "" and false when the
// key is missing or the store is unavailable.
func (s *Store) GetRaw(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE key = ?`, s.namespaced(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.log.Error(ctx, "credential read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

// SetRaw stores value under key as-is, reporting success.
func (s *Store) SetRaw(ctx context.Context, key, value string) bool {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, s.namespaced(key), value)
	if err != nil {
		s.log.Error(ctx, "credential write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Get unmarshals the JSON value stored under key into dest, reporting success.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	raw, ok := s.GetRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.log.Error(ctx, "credential decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key as JSON, reporting success.
func (s *Store) Set(ctx context.Context, key string, value any) bool {
	b, err := json.Marshal(value)
	if err != nil {
		s.log.Error(ctx, "credential encode failed", "key", key, "error", err)
		return false
	}
	return s.SetRaw(ctx, key, string(b))
}

// Remove deletes the value stored under key, reporting success. Removing a
// missing key succeeds.
func (s *Store) Remove(ctx context.Context, key string) bool {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE key = ?`, s.namespaced(key))
	if err != nil {
		s.log.Error(ctx, "credential delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// Clear deletes every value in the namespace, reporting success.
func (s *Store) Clear(ctx context.Context) bool {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE key LIKE ?`, fmt.Sprintf("%s%%", common.StoragePrefix))
	if err != nil {
		s.log.Error(ctx, "credential clear failed", "error", err)
		return false
	}
	return true
}

// AccessToken returns the persisted access token, if any. The tokens are
// stored raw, never JSON-quoted.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.GetRaw(ctx, keyAccessToken)
}

func (s *Store) SetAccessToken(ctx context.Context, token string) bool {
	return s.SetRaw(ctx, keyAccessToken, token)
}

func (s *Store) RemoveAccessToken(ctx context.Context) bool {
	return s.Remove(ctx, keyAccessToken)
}

// RefreshToken returns the persisted refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.GetRaw(ctx, keyRefreshToken)
}

func (s *Store) SetRefreshToken(ctx context.Context, token string) bool {
	return s.SetRaw(ctx, keyRefreshToken, token)
}

func (s *Store) RemoveRefreshToken(ctx context.Context) bool {
	return s.Remove(ctx, keyRefreshToken)
}

// User returns the cached user profile, if one is stored and decodable.
func (s *Store) User(ctx context.Context) (*models.UserProfile, bool) {
	var u models.UserProfile
	if !s.Get(ctx, keyUser, &u) {
		return nil, false
	}
	return &u, true
}

func (s *Store) SetUser(ctx context.Context, user *models.UserProfile) bool {
	return s.Set(ctx, keyUser, user)
}

func (s *Store) RemoveUser(ctx context.Context) bool {
	return s.Remove(ctx, keyUser)
}

// SetAuth persists the full credential record (token pair plus cached user)
// in a single transaction, so a crash mid-login cannot leave a half-written
// record. When the store was built over a handle that is already
// transactional it falls back to sequential writes.
func (s *Store) SetAuth(ctx context.Context, access, refresh string, user *models.UserProfile) bool {
	payload, err := json.Marshal(user)
	if err != nil {
		s.log.Error(ctx, "credential write failed", "key", keyUser, "error", err)
		return false
	}

	record := [][2]string{
		{keyAccessToken, access},
		{keyRefreshToken, refresh},
		{keyUser, string(payload)},
	}

	db, ok := s.db.(*sql.DB)
	if !ok {
		for _, kv := range record {
			if !s.SetRaw(ctx, kv[0], kv[1]) {
				return false
			}
		}
		return true
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kv := range record {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO credentials (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, s.namespaced(kv[0]), kv[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "credential record write failed", "error", err)
		return false
	}
	return true
}

// ClearAuth removes the full credential record: both tokens and the cached
// user. Used on logout and on unrecoverable auth failures.
func (s *Store) ClearAuth(ctx context.Context) {
	s.RemoveAccessToken(ctx)
	s.RemoveRefreshToken(ctx)
	s.RemoveUser(ctx)
}
