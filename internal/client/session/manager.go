// Package session owns the signed-in state of the toolshare client: the
// token pair, the user snapshot and the cached avatar. Every authenticated
// backend call goes through Manager so the refresh-and-retry policy lives in
// one place.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/avatar"
	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/common"
	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultAvatarTimeout  = 30 * time.Second
)

type Manager struct {
	store   store.Store
	api     client.Client
	broker  events.Broker
	avatars avatar.Cache
	logger  logging.Logger

	source         string
	requestTimeout time.Duration
	avatarTimeout  time.Duration

	refreshGroup singleflight.Group
	background   sync.WaitGroup
}

type Option func(*Manager)

func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) { m.requestTimeout = d }
}

func WithAvatarTimeout(d time.Duration) Option {
	return func(m *Manager) { m.avatarTimeout = d }
}

// WithSource sets the id stamped on published events. It must match the id
// given to a RedisBroker shared with this manager.
func WithSource(id string) Option {
	return func(m *Manager) { m.source = id }
}

func NewManager(st store.Store, api client.Client, broker events.Broker, avatars avatar.Cache, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:          st,
		api:            api,
		broker:         broker,
		avatars:        avatars,
		source:         uuid.NewString(),
		requestTimeout: DefaultRequestTimeout,
		avatarTimeout:  DefaultAvatarTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = logger.With("component", "session", "source", m.source)
	return m
}

// Source returns the id stamped on events published by m.
func (m *Manager) Source() string {
	return m.source
}

// Subscribe returns a stream of session change events.
func (m *Manager) Subscribe() (<-chan events.Event, func()) {
	return m.broker.Subscribe()
}

// Wait blocks until background avatar caching started by Login or
// UploadAvatar is done.
func (m *Manager) Wait() {
	m.background.Wait()
}

func (m *Manager) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.requestTimeout)
}

func (m *Manager) publish(ctx context.Context, kind events.Kind) {
	e := events.Event{Kind: kind, Source: m.source, At: time.Now().UTC()}
	if err := m.broker.Publish(ctx, e); err != nil {
		m.logger.Warn(ctx, "failed to publish event", "kind", kind, "error", err)
	}
}

// Login exchanges credentials for a session and persists it.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*models.Session, error) {
	callCtx, cancel := m.callCtx(ctx)
	resp, err := m.api.Login(callCtx, identifier, secret)
	cancel()
	if err != nil {
		return nil, err
	}
	return m.Establish(ctx, resp)
}

// Establish persists a session handed out by the backend, either by login or
// by a completed OTP verification, replacing any previous one.
func (m *Manager) Establish(ctx context.Context, resp *models.LoginResponse) (*models.Session, error) {
	if resp == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, &client.AuthError{Message: "Login failed: incomplete response"}
	}
	user, err := models.DecodeUser(resp.User)
	if err != nil {
		return nil, &client.AuthError{Message: "Login failed: " + err.Error()}
	}

	err = m.store.Update(ctx, func(ctx context.Context, tx store.Store) error {
		for _, k := range common.SessionKeys {
			if err := tx.Delete(ctx, k); err != nil {
				return err
			}
		}
		if err := tx.Set(ctx, common.KeyAccessToken, []byte(resp.AccessToken)); err != nil {
			return err
		}
		if err := tx.Set(ctx, common.KeyRefreshToken, []byte(resp.RefreshToken)); err != nil {
			return err
		}
		return tx.Set(ctx, common.KeyUser, resp.User)
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info(ctx, "signed in", "user_id", user.ID)
	m.publish(ctx, events.KindLogin)

	if ref := user.AvatarRef(); ref != "" {
		m.cacheInBackground(ctx, ref)
	}

	return &models.Session{
		TokenPair: models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken},
		User:      user,
		UserJSON:  resp.User,
	}, nil
}

// Logout ends the session. The backend is told to drop the refresh token on
// a best-effort basis; local state is cleared regardless. Safe to call
// without a session.
func (m *Manager) Logout(ctx context.Context) {
	m.logout(ctx, true)
}

func (m *Manager) logout(ctx context.Context, allowRefresh bool) {
	refresh, err := m.store.Get(ctx, common.KeyRefreshToken)
	if err != nil {
		m.logger.Warn(ctx, "failed to read refresh token", "error", err)
	}
	if len(refresh) > 0 {
		req := &client.Request{
			Method: http.MethodPost,
			Path:   "/auth/logout",
			Body:   map[string]string{"refreshToken": string(refresh)},
		}
		call := func(ctx context.Context, token string) error {
			return m.api.Send(ctx, req, token, nil)
		}
		if allowRefresh {
			err = m.authorized(ctx, call)
		} else {
			err = m.once(ctx, call)
		}
		if errors.Is(err, ErrSessionExpired) {
			// The failed refresh already cleared the session.
			return
		}
		if err != nil {
			m.logger.Warn(ctx, "backend logout failed", "error", err)
		}
	}

	m.clear(ctx)
}

// clear wipes every session key in one transaction, drops cached avatars and
// announces the logout.
func (m *Manager) clear(ctx context.Context) {
	err := m.store.Update(ctx, func(ctx context.Context, tx store.Store) error {
		for _, k := range common.SessionKeys {
			if err := tx.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.logger.Error(ctx, "failed to clear session", "error", err)
	}
	if err := m.avatars.Purge(ctx); err != nil {
		m.logger.Warn(ctx, "failed to purge avatar cache", "error", err)
	}
	m.logger.Info(ctx, "signed out")
	m.publish(ctx, events.KindLogout)
}

// Snapshot reads the persisted session. A store holding only part of a
// session is cleared and reported as empty.
func (m *Manager) Snapshot(ctx context.Context) (*models.Session, error) {
	kv, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	access := kv[common.KeyAccessToken]
	refresh := kv[common.KeyRefreshToken]
	rawUser := kv[common.KeyUser]

	if len(access) == 0 && len(refresh) == 0 && len(rawUser) == 0 {
		if _, ok := kv[common.KeyAvatarImage]; ok {
			if err := m.store.Delete(ctx, common.KeyAvatarImage); err != nil {
				return nil, fmt.Errorf("drop stale avatar key: %w", err)
			}
		}
		return nil, nil
	}

	var user *models.User
	if len(access) > 0 && len(refresh) > 0 && len(rawUser) > 0 {
		user, err = models.DecodeUser(rawUser)
	}
	if user == nil {
		m.logger.Warn(ctx, "discarding incomplete session",
			"has_access", len(access) > 0, "has_refresh", len(refresh) > 0, "has_user", len(rawUser) > 0, "error", err)
		m.clear(ctx)
		return nil, nil
	}

	return &models.Session{
		TokenPair: models.TokenPair{AccessToken: string(access), RefreshToken: string(refresh)},
		User:      user,
		UserJSON:  json.RawMessage(rawUser),
	}, nil
}

// CurrentUser returns the signed-in user or nil. It never fails; a nil or
// store-less manager reports no user.
func (m *Manager) CurrentUser() *models.User {
	if m == nil || m.store == nil {
		return nil
	}
	ctx, cancel := m.callCtx(context.Background())
	defer cancel()

	s, err := m.Snapshot(ctx)
	if err != nil {
		m.logger.Warn(ctx, "failed to read current user", "error", err)
		return nil
	}
	if s == nil {
		return nil
	}
	return s.User
}

func (m *Manager) accessToken(ctx context.Context) (string, error) {
	token, err := m.store.Get(ctx, common.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if len(token) == 0 {
		return "", ErrNoSession
	}
	return string(token), nil
}
