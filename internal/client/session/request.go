package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/common"
)

// Do performs an authenticated call and decodes a JSON answer into out.
// See Send.
func (m *Manager) Do(ctx context.Context, method, path string, body, out any) error {
	return m.Send(ctx, &client.Request{Method: method, Path: path, Body: body}, out)
}

// Send performs req with the stored access token. A 401 answer triggers one
// refresh and one retry; a second 401 ends the session with
// ErrSessionExpired. Other failures come back as *client.APIError or a
// transport error.
func (m *Manager) Send(ctx context.Context, req *client.Request, out any) error {
	return m.authorized(ctx, func(ctx context.Context, token string) error {
		return m.api.Send(ctx, req, token, out)
	})
}

// once runs call with the current access token under the request timeout.
func (m *Manager) once(ctx context.Context, call func(ctx context.Context, token string) error) error {
	token, err := m.accessToken(ctx)
	if err != nil {
		return err
	}
	callCtx, cancel := m.callCtx(ctx)
	defer cancel()
	return call(callCtx, token)
}

// authorized is the refresh-and-retry policy shared by every authenticated
// call.
func (m *Manager) authorized(ctx context.Context, call func(ctx context.Context, token string) error) error {
	err := m.once(ctx, call)
	if !errors.Is(err, client.ErrUnauthorized) {
		return err
	}

	m.logger.Debug(ctx, "access token rejected, refreshing")
	token, err := m.RefreshAccessToken(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := m.callCtx(ctx)
	err = call(callCtx, token)
	cancel()
	if errors.Is(err, client.ErrUnauthorized) {
		m.logger.Warn(ctx, "request rejected after refresh, ending session")
		m.logout(ctx, false)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

type refreshResult struct {
	token string
}

// RefreshAccessToken trades the stored refresh token for a new access token
// and stores it. Concurrent callers share one backend call. When the
// backend rejects the refresh token the session is cleared and
// ErrSessionExpired is returned.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	ch := m.refreshGroup.DoChan("refresh", func() (any, error) {
		// Waiters other than the first caller rely on this call finishing.
		token, err := m.refresh(context.WithoutCancel(ctx))
		return refreshResult{token: token}, err
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(refreshResult).token, nil
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	refreshToken, err := m.store.Get(ctx, common.KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if len(refreshToken) == 0 {
		return "", ErrNoSession
	}

	callCtx, cancel := m.callCtx(ctx)
	resp, err := m.api.RefreshToken(callCtx, string(refreshToken))
	cancel()
	if err != nil {
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) {
			return "", fmt.Errorf("refresh access token: %w", err)
		}
		m.logger.Warn(ctx, "refresh rejected, ending session", "status", apiErr.Status, "error", err)
		m.logout(ctx, false)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	var token string
	err = m.store.Update(ctx, func(ctx context.Context, tx store.Store) error {
		current, err := tx.Get(ctx, common.KeyRefreshToken)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return ErrNoSession
		}
		if !bytes.Equal(current, refreshToken) {
			// Another process renewed or replaced the session meanwhile.
			access, err := tx.Get(ctx, common.KeyAccessToken)
			if err != nil {
				return err
			}
			token = string(access)
			return nil
		}
		if err := tx.Set(ctx, common.KeyAccessToken, []byte(resp.AccessToken)); err != nil {
			return err
		}
		if resp.RefreshToken != "" {
			if err := tx.Set(ctx, common.KeyRefreshToken, []byte(resp.RefreshToken)); err != nil {
				return err
			}
		}
		token = resp.AccessToken
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", err
		}
		return "", fmt.Errorf("store access token: %w", err)
	}

	m.logger.Debug(ctx, "access token refreshed", "rotated", resp.RefreshToken != "")
	m.publish(ctx, events.KindTokenRefreshed)
	return token, nil
}
