// Package common contains shared constants used across toolshare client
// components.
package common

// Header names attached to outbound backend requests.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)

// Keys of the persisted session record.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyAvatarImage  = "avatarImage"
)

// SessionKeys lists every key owned by the session manager. Logout clears all
// of them in one transaction.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyAvatarImage}
