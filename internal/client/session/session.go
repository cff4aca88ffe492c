// Package session owns the authentication lifecycle: bootstrap on startup,
// Kakao login, token refresh and logout. It is the single writer of the
// credential store's auth keys and fans out state changes to observers.
package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/catusdev/catus-client/internal/client/api"
	"github.com/catusdev/catus-client/internal/client/credentials"
	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/common"
	"github.com/catusdev/catus-client/internal/logging"
	"github.com/catusdev/catus-client/internal/tokenx"
)

// State is the session's lifecycle phase.
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is an immutable view of the session handed to observers.
type Snapshot struct {
	State State
	User  *models.UserProfile
}

// Observer receives a snapshot after every state transition.
type Observer func(Snapshot)

// guardResetter is the pipeline hook the manager pokes after a successful
// login so the next expiry can fire the session-expired path again.
type guardResetter interface {
	ResetSessionGuard()
}

// Manager drives the session state machine. All mutating methods are safe
// for concurrent use.
type Manager struct {
	client api.Client
	creds  *credentials.Store
	guard  guardResetter
	log    logging.Logger

	refreshGroup singleflight.Group

	mu        sync.Mutex
	state     State
	user      *models.UserProfile
	observers []Observer
}

// NewManager starts in the loading state; call Bootstrap to resolve it.
func NewManager(client api.Client, creds *credentials.Store, guard guardResetter, log logging.Logger) *Manager {
	return &Manager{
		client: client,
		creds:  creds,
		guard:  guard,
		log:    log.With("component", "session"),
		state:  StateLoading,
	}
}

// Subscribe registers an observer and immediately delivers the current
// snapshot so late subscribers do not miss the resolved state.
func (m *Manager) Subscribe(obs Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, obs)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	obs(snap)
}

// Snapshot returns the current state and user.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{State: m.state, User: m.user}
}

// Bootstrap restores the session from stored credentials. A stored token is
// validated against the backend; on failure one silent refresh is attempted
// before giving up. The session always leaves the loading state.
func (m *Manager) Bootstrap(ctx context.Context) Snapshot {
	token, ok := m.creds.AccessToken(ctx)
	if !ok || token == "" {
		m.log.Debug(ctx, "bootstrap: no stored token")
		return m.transition(StateUnauthenticated, nil)
	}

	// Silent validation needs a full warm-restart record: the token and the
	// cached profile. Anything less goes through the refresh exchange.
	if _, hasUser := m.creds.User(ctx); hasUser && !tokenx.IsExpired(token) {
		if user, err := m.client.Me(ctx); err == nil {
			m.creds.SetUser(ctx, user)
			m.log.Info(ctx, "bootstrap: session restored", "user_id", user.ID)
			return m.transition(StateAuthenticated, user)
		}
	}

	// Expired, rejected, or incomplete record: try the refresh token once
	// before declaring the session dead.
	if _, err := m.RefreshAccessToken(ctx); err != nil {
		m.log.Info(ctx, "bootstrap: refresh failed, signing out", "error", err)
		m.creds.ClearAuth(ctx)
		return m.transition(StateUnauthenticated, nil)
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		m.creds.ClearAuth(ctx)
		return m.transition(StateUnauthenticated, nil)
	}
	m.creds.SetUser(ctx, user)
	m.log.Info(ctx, "bootstrap: session restored after refresh", "user_id", user.ID)
	return m.transition(StateAuthenticated, user)
}

// LoginWithKakao exchanges the authorization code for tokens and enters the
// authenticated state.
func (m *Manager) LoginWithKakao(ctx context.Context, code string) (*models.UserProfile, error) {
	res, err := m.client.KakaoLogin(ctx, code)
	if err != nil {
		return nil, err
	}

	user := res.User
	m.creds.SetAuth(ctx, res.AccessToken, res.RefreshToken, &user)
	if m.guard != nil {
		m.guard.ResetSessionGuard()
	}

	m.log.Info(ctx, "login succeeded", "user_id", user.ID)
	m.transition(StateAuthenticated, &user)
	return &user, nil
}

// Logout tells the backend best-effort and purges local credentials
// unconditionally. A failed server call never keeps the user signed in.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.log.Warn(ctx, "server logout failed, clearing local session anyway", "error", err)
	}
	m.creds.ClearAuth(ctx)
	m.transition(StateUnauthenticated, nil)
}

// HandleSessionExpired is wired as the pipeline's OnSessionExpired hook.
// Credentials are already cleared by the pipeline at that point.
func (m *Manager) HandleSessionExpired() {
	m.log.Info(context.Background(), "session expired")
	m.transition(StateUnauthenticated, nil)
}

// RefreshAccessToken exchanges the stored refresh token for a new pair.
// Concurrent callers are coalesced so a burst of expiring requests produces
// exactly one backend call. Implements transport.TokenRefresher.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	refresh, ok := m.creds.RefreshToken(ctx)
	if !ok || refresh == "" {
		return "", common.ErrNoToken
	}

	res, err := m.client.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", errors.New("refresh response missing access token")
	}

	m.creds.SetAccessToken(ctx, res.AccessToken)
	if res.RefreshToken != "" {
		m.creds.SetRefreshToken(ctx, res.RefreshToken)
	}
	m.log.Debug(ctx, "access token refreshed")
	return res.AccessToken, nil
}

// UpdateUser merges the fields into the stored profile and re-broadcasts.
func (m *Manager) UpdateUser(ctx context.Context, upd models.UserUpdate) {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return
	}
	merged := m.user.Merge(upd)
	m.user = &merged
	snap := m.snapshotLocked()
	obs := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	m.creds.SetUser(ctx, &merged)
	for _, o := range obs {
		o(snap)
	}
}

func (m *Manager) transition(state State, user *models.UserProfile) Snapshot {
	m.mu.Lock()
	m.state = state
	m.user = user
	snap := m.snapshotLocked()
	obs := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	for _, o := range obs {
		o(snap)
	}
	return snap
}
