package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/common"
)

// decodeDoc parses a JSON object keeping numbers as json.Number so a
// rewrite does not alter them.
func decodeDoc(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// mergeProfile copies patch into doc's nested profile key by key.
func mergeProfile(doc, patch map[string]any) {
	profile, _ := doc["profile"].(map[string]any)
	if profile == nil {
		profile = make(map[string]any, len(patch))
	}
	maps.Copy(profile, patch)
	doc["profile"] = profile
}

// rewriteUser applies fn to the stored user document and writes the whole
// record back.
func (m *Manager) rewriteUser(ctx context.Context, fn func(doc map[string]any)) (*models.User, error) {
	var user *models.User
	err := m.store.Update(ctx, func(ctx context.Context, tx store.Store) error {
		raw, err := tx.Get(ctx, common.KeyUser)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return ErrNoSession
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return fmt.Errorf("decode stored user: %w", err)
		}

		fn(doc)

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if user, err = models.DecodeUser(data); err != nil {
			return err
		}
		return tx.Set(ctx, common.KeyUser, data)
	})
	if err != nil {
		return nil, fmt.Errorf("update stored user: %w", err)
	}
	return user, nil
}

func (m *Manager) isCurrentUser(ctx context.Context, userID string) (bool, error) {
	raw, err := m.store.Get(ctx, common.KeyUser)
	if err != nil {
		return false, fmt.Errorf("read user: %w", err)
	}
	if len(raw) == 0 {
		return false, ErrNoSession
	}
	u, err := models.DecodeUser(raw)
	if err != nil {
		return false, err
	}
	return u.ID == userID, nil
}

// UpdateProfile sends a partial profile update for userID. When userID is
// the signed-in user, the returned profile fields are merged into the stored
// user without dropping fields absent from the update.
func (m *Manager) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*models.User, error) {
	body := maps.Clone(fields)
	if body == nil {
		body = map[string]any{}
	}
	body["userId"] = userID

	var resp struct {
		Profile map[string]any `json:"profile"`
	}
	if err := m.Do(ctx, http.MethodPut, "/profile", body, &resp); err != nil {
		return nil, err
	}
	patch := resp.Profile
	if patch == nil {
		patch = fields
	}

	own, err := m.isCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !own {
		doc := map[string]any{"id": userID}
		mergeProfile(doc, patch)
		data, _ := json.Marshal(doc)
		return models.DecodeUser(data)
	}

	user, err := m.rewriteUser(ctx, func(doc map[string]any) { mergeProfile(doc, patch) })
	if err != nil {
		return nil, err
	}
	m.publish(ctx, events.KindProfileUpdated)
	return user, nil
}

// UpdateUser sends a partial update of core user fields (names, email,
// phone). The stored user is merged the same way as in UpdateProfile.
func (m *Manager) UpdateUser(ctx context.Context, userID string, fields map[string]any) (*models.User, error) {
	current := m.CurrentUser()
	if current == nil {
		return nil, ErrNoSession
	}

	body := maps.Clone(fields)
	if body == nil {
		body = map[string]any{}
	}
	body["id"] = userID
	body["updatedBy"] = current.ID

	var resp struct {
		User map[string]any `json:"user"`
	}
	if err := m.Do(ctx, http.MethodPut, "/users", body, &resp); err != nil {
		return nil, err
	}
	patch := resp.User
	if patch == nil {
		patch = maps.Clone(fields)
	}
	if patch == nil {
		patch = map[string]any{}
	}
	delete(patch, "profile")

	if current.ID != userID {
		doc := maps.Clone(patch)
		doc["id"] = userID
		data, _ := json.Marshal(doc)
		return models.DecodeUser(data)
	}

	user, err := m.rewriteUser(ctx, func(doc map[string]any) {
		for k, v := range patch {
			if k == "id" {
				continue
			}
			doc[k] = v
		}
	})
	if err != nil {
		return nil, err
	}
	m.publish(ctx, events.KindProfileUpdated)
	return user, nil
}

// FetchUser loads a user and its profile from the backend.
func (m *Manager) FetchUser(ctx context.Context, id string) (*models.User, error) {
	var resp struct {
		User    map[string]any `json:"user"`
		Profile map[string]any `json:"profile"`
	}
	if err := m.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("user %s: empty response", id)
	}
	if resp.Profile != nil {
		mergeProfile(resp.User, resp.Profile)
	}
	data, err := json.Marshal(resp.User)
	if err != nil {
		return nil, err
	}
	return models.DecodeUser(data)
}

// ListUsers returns one page of the admin user listing.
func (m *Manager) ListUsers(ctx context.Context, page models.Page) ([]*models.User, error) {
	var resp struct {
		UsersList struct {
			Data []json.RawMessage `json:"data"`
		} `json:"usersList"`
	}
	if err := m.Do(ctx, http.MethodPost, "/users/all", page, &resp); err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(resp.UsersList.Data))
	for _, raw := range resp.UsersList.Data {
		u, err := models.DecodeUser(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
