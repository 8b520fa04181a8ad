package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/avatar"
	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/common"
)

// MaxAvatarSize is the largest picture UploadAvatar accepts.
const MaxAvatarSize = 5 << 20

var (
	ErrAvatarTooLarge = fmt.Errorf("avatar exceeds %d bytes", MaxAvatarSize)
	errStaleAvatar    = errors.New("avatar reference changed")
)

// UploadAvatar uploads a new profile picture for userID and returns its
// reference. For the signed-in user the stored profile is updated and the
// new image is fetched into the cache in the background; fetch failures are
// only logged.
func (m *Manager) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	body := &client.Multipart{
		Fields:    map[string]string{"userId": userID},
		FileField: "profile_pic",
		FileName:  filename,
		File:      data,
	}
	var resp struct {
		AvatarURL string `json:"avatarUrl"`
		Profile   struct {
			AvatarURL string `json:"avatarUrl"`
		} `json:"profile"`
	}
	if err := m.Do(ctx, http.MethodPost, "/profile/upload-avatar", body, &resp); err != nil {
		return "", err
	}
	ref := resp.Profile.AvatarURL
	if ref == "" {
		ref = resp.AvatarURL
	}
	if ref == "" {
		return "", fmt.Errorf("upload avatar: response carries no avatar url")
	}

	current := m.CurrentUser()
	if current == nil || current.ID != userID {
		return ref, nil
	}

	previous := current.AvatarRef()
	if _, err := m.rewriteUser(ctx, func(doc map[string]any) {
		mergeProfile(doc, map[string]any{"avatarUrl": ref})
	}); err != nil {
		return "", err
	}
	if previous != "" && previous != ref {
		if err := m.avatars.Invalidate(ctx, previous); err != nil {
			m.logger.Warn(ctx, "failed to invalidate avatar", "ref", previous, "error", err)
		}
	}

	m.cacheInBackground(ctx, ref)
	return ref, nil
}

// cacheInBackground starts refreshAvatar detached from ctx. Wait blocks
// until it is done.
func (m *Manager) cacheInBackground(ctx context.Context, ref string) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		parent := context.WithoutCancel(ctx)
		actx, cancel := context.WithCancel(parent)
		if m.avatarTimeout > 0 {
			cancel()
			actx, cancel = context.WithTimeout(parent, m.avatarTimeout)
		}
		defer cancel()
		m.refreshAvatar(actx, ref)
	}()
}

// refreshAvatar downloads ref into the cache and records it as the current
// avatar. It always ends with an avatarUpdated event.
func (m *Manager) refreshAvatar(ctx context.Context, ref string) {
	defer m.publish(context.WithoutCancel(ctx), events.KindAvatarUpdated)

	if err := m.cacheAvatar(ctx, ref); err != nil {
		if errors.Is(err, errStaleAvatar) || errors.Is(err, ErrNoSession) {
			m.logger.Debug(ctx, "avatar no longer current", "ref", ref)
			return
		}
		m.logger.Warn(ctx, "failed to cache avatar", "ref", ref, "error", err)
		if err := m.store.Delete(ctx, common.KeyAvatarImage); err != nil {
			m.logger.Warn(ctx, "failed to drop avatar key", "error", err)
		}
	}
}

// cacheAvatar makes a single attempt. A rejected download must not refresh
// or end the session.
func (m *Manager) cacheAvatar(ctx context.Context, ref string) error {
	var contentType string
	var data []byte
	err := m.once(ctx, func(ctx context.Context, token string) error {
		var err error
		contentType, data, err = m.api.FetchBinary(ctx, ref, token)
		return err
	})
	if err != nil {
		return err
	}

	entry := &avatar.Entry{Ref: ref, ContentType: contentType, Data: data, FetchedAt: time.Now().UTC()}
	if err := m.avatars.Put(ctx, entry); err != nil {
		return err
	}

	// The user may have signed out or changed picture while downloading.
	return m.store.Update(ctx, func(ctx context.Context, tx store.Store) error {
		raw, err := tx.Get(ctx, common.KeyUser)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return ErrNoSession
		}
		u, err := models.DecodeUser(raw)
		if err != nil {
			return err
		}
		if u.AvatarRef() != ref {
			return errStaleAvatar
		}
		return tx.Set(ctx, common.KeyAvatarImage, []byte(ref))
	})
}

// AvatarImage returns the signed-in user's picture as a data URL, or a
// generated placeholder when nothing is cached.
func (m *Manager) AvatarImage(ctx context.Context) string {
	s, err := m.Snapshot(ctx)
	if err != nil || s == nil {
		return avatar.Placeholder(nil)
	}

	ref := s.User.AvatarRef()
	cached, err := m.store.Get(ctx, common.KeyAvatarImage)
	if err != nil || ref == "" || string(cached) != ref {
		return avatar.Placeholder(s.User)
	}

	e, err := m.avatars.Get(ctx, ref)
	if err != nil || e == nil {
		return avatar.Placeholder(s.User)
	}
	return avatar.DataURL(e.ContentType, e.Data)
}
