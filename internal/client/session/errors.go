package session

import "errors"

var (
	// ErrNoSession is returned by operations that need a signed-in user when
	// the store holds no session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired means the backend refused to renew the session. The
	// local session has been cleared by the time it is returned.
	ErrSessionExpired = errors.New("session expired")
)
