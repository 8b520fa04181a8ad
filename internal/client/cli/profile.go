package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/session"
)

func (a *App) currentUser() (*models.User, error) {
	u := a.sessions.CurrentUser()
	if u == nil {
		return nil, session.ErrNoSession
	}
	return u, nil
}

func (a *App) printUser(u *models.User) {
	a.println(fmt.Sprintf("%s (@%s) id=%s", u.DisplayName(), u.Username, u.ID))
	if u.Email != "" {
		a.println("  email:   " + u.Email)
	}
	if u.IsAdmin {
		a.println("  role:    admin")
	}
	if u.Profile != nil {
		if u.Profile.Bio != "" {
			a.println("  bio:     " + strings.ReplaceAll(u.Profile.Bio, "\n", "\n           "))
		}
		if u.Profile.Address != "" {
			a.println("  address: " + u.Profile.Address)
		}
		if u.Profile.AvatarURL != "" {
			a.println("  avatar:  " + u.Profile.AvatarURL)
		}
	}
	if u.ReviewCount > 0 {
		a.println(fmt.Sprintf("  rating:  %.1f (%d reviews)", u.Rating, u.ReviewCount))
	}
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.currentUser()
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) ShowStatus(ctx context.Context) error {
	st, err := a.sessions.Status(ctx)
	if err != nil {
		return err
	}
	if !st.LoggedIn {
		a.println("Not logged in.")
		return nil
	}
	a.println("Logged in as " + st.Username)
	if !st.ExpiresAt.IsZero() {
		a.println("  access token expires in " + time.Until(st.ExpiresAt).Round(time.Second).String())
	}
	if st.AvatarCached {
		a.println("  avatar cached")
	} else {
		a.println("  avatar: placeholder")
	}
	return nil
}

func (a *App) SetBio(ctx context.Context) error {
	u, err := a.currentUser()
	if err != nil {
		return err
	}
	bio, err := GetMultiline(a.reader, "New bio", a.out)
	if err != nil {
		return err
	}
	return a.updateProfile(ctx, u.ID, map[string]any{"bio": bio})
}

func (a *App) SetAddress(ctx context.Context) error {
	u, err := a.currentUser()
	if err != nil {
		return err
	}
	address, err := a.ask("New address")
	if err != nil {
		return err
	}
	return a.updateProfile(ctx, u.ID, map[string]any{"address": address})
}

func (a *App) updateProfile(ctx context.Context, userID string, fields map[string]any) error {
	if _, err := a.sessions.UpdateProfile(ctx, userID, fields); err != nil {
		return err
	}
	a.println("Profile updated.")
	return nil
}

func (a *App) UploadAvatar(ctx context.Context, path string) error {
	u, err := a.currentUser()
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ref, err := a.sessions.UploadAvatar(ctx, u.ID, filepath.Base(path), f)
	if err != nil {
		return err
	}
	a.println("Avatar uploaded: " + ref)
	return nil
}

func (a *App) ShowUser(ctx context.Context, id string) error {
	u, err := a.directory.FetchUserProfile(ctx, id)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) ListUsers(ctx context.Context) error {
	users, err := a.directory.ListUsers(ctx, models.DefaultPage())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.println("No users.")
		return nil
	}
	for _, u := range users {
		a.println(fmt.Sprintf("%-36s  @%-16s %s", u.ID, u.Username, u.DisplayName()))
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.sessions.RefreshAccessToken(ctx); err != nil {
		return err
	}
	a.println("Session renewed.")
	return nil
}
