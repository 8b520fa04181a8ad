// Package models defines the client-side data model of toolshare: the
// signed-in user snapshot, its profile, and the credential pair.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Location is a geographic point picked on the map during registration.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Profile is the nested profile sub-record of a user.
type Profile struct {
	Bio       string    `json:"bio,omitempty"`
	Address   string    `json:"address,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// User is a typed view over the user document returned by the backend.
// The session store keeps the raw JSON so fields unknown to this struct
// survive merges.
type User struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstname,omitempty"`
	LastName    string    `json:"lastname,omitempty"`
	Username    string    `json:"username,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	IsAdmin     bool      `json:"isAdmin,omitempty"`
	IsVerified  bool      `json:"isVerified,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	ReviewCount int       `json:"reviews,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	Profile     *Profile  `json:"profile,omitempty"`
}

// AvatarRef returns the avatar reference of the user, preferring the nested
// profile's value.
func (u *User) AvatarRef() string {
	if u == nil || u.Profile == nil {
		return ""
	}
	return u.Profile.AvatarURL
}

// DisplayName is "First Last", falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Initials returns up to two upper-case letters for placeholder avatars.
func (u *User) Initials() string {
	if u == nil {
		return "?"
	}
	var out []rune
	for _, part := range []string{u.FirstName, u.LastName} {
		if r := []rune(strings.TrimSpace(part)); len(r) > 0 {
			out = append(out, r[0])
		}
	}
	if len(out) == 0 {
		if r := []rune(u.Username); len(r) > 0 {
			out = append(out, r[0])
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return strings.ToUpper(string(out))
}

// DecodeUser parses a stored user document. A document without an id is
// rejected since no session can belong to it.
func DecodeUser(raw []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("decode user: missing id")
	}
	return &u, nil
}
