package models

import (
	"errors"
	"strings"
)

var ErrIncompleteRegistration = errors.New("registration requires username, email, password and location")

// RegisterRequest is the body of /auth/register.
type RegisterRequest struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"firstname"`
	LastName    string    `json:"lastname"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Location    *Location `json:"location"`
}

// Validate checks the input contract only; field rules live on the backend.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" || r.Location == nil {
		return ErrIncompleteRegistration
	}
	return nil
}
