package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Status summarises the local session for display.
type Status struct {
	LoggedIn     bool
	UserID       string
	Username     string
	IsAdmin      bool
	ExpiresAt    time.Time // zero when the access token carries no exp claim
	AvatarCached bool
}

// Status inspects the stored session without contacting the backend. The
// access token is decoded but not verified.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	s, err := m.Snapshot(ctx)
	if err != nil || s == nil {
		return Status{}, err
	}

	st := Status{
		LoggedIn: true,
		UserID:   s.User.ID,
		Username: s.User.Username,
		IsAdmin:  s.User.IsAdmin,
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		st.ExpiresAt = claims.ExpiresAt.Time
	}

	if ref := s.User.AvatarRef(); ref != "" {
		cached, err := m.store.Get(ctx, common.KeyAvatarImage)
		st.AvatarCached = err == nil && string(cached) == ref
	}
	return st, nil
}
