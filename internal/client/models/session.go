package models

import "encoding/json"

// TokenPair is the credential bundle issued by /auth/login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the persisted record of a signed-in user.
type Session struct {
	TokenPair
	User *User `json:"user"`
	// UserJSON is the document as stored, including fields User does not model.
	UserJSON json.RawMessage `json:"-"`
}

// LoginResponse is the body of a successful /auth/login.
type LoginResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

// RefreshResponse is the body of a successful /auth/refresh-token. The
// backend may rotate the refresh token; an empty RefreshToken means it did not.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Page selects a slice of the admin user listing.
type Page struct {
	Order    string `json:"order"`
	Asc      string `json:"asc"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// DefaultPage mirrors the listing the web front end requests.
func DefaultPage() Page {
	return Page{Order: "createdAt", Asc: "DESC", Page: 1, PageSize: 10}
}
