package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotConfigured = errors.New("backend URL is not configured")
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string

	// fromBody is set when Message came from the response body rather than
	// the HTTP status text.
	fromBody bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// AuthError is a rejected account operation. Message is meant for the user.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// asAuthError converts a transport error of an account endpoint. Only
// backend rejections become AuthError; configuration and transport failures
// pass through. Without a backend message the fallback is used, suffixed
// with the status text when withStatus is set.
func asAuthError(err error, fallback string, withStatus bool) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if !apiErr.fromBody {
		msg = fallback
		if withStatus {
			msg = fallback + ": " + http.StatusText(apiErr.Status)
		}
	}
	return &AuthError{Status: apiErr.Status, Message: msg}
}
