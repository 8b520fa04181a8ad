package cli

import (
	"errors"

	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/session"
)

// describeError turns a command failure into the message shown to the user.
func describeError(err error) string {
	var authErr *client.AuthError
	var apiErr *client.APIError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.Is(err, session.ErrSessionExpired):
		return "your session has expired, please log in again"
	case errors.Is(err, session.ErrNoSession):
		return "please log in first"
	case errors.Is(err, client.ErrNotConfigured):
		return "backend URL is not configured"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, models.ErrIncompleteRegistration):
		return err.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
