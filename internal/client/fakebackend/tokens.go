package fakebackend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

// mintLocked issues an access/refresh pair for userID.
func (b *Backend) mintLocked(userID string) (string, string, error) {
	access, err := b.accessTokenLocked(userID)
	if err != nil {
		return "", "", err
	}
	refresh := uuid.NewString()
	b.refresh[refresh] = userID
	return access, refresh, nil
}

func (b *Backend) accessTokenLocked(userID string) (string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", err
	}
	b.issued = append(b.issued, jti)
	return signed, nil
}

// authenticate rejects requests without a live bearer token and stores the
// caller's user id in the request context.
func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Access token missing")
			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "jwt expired"
			}
			writeMessage(w, http.StatusUnauthorized, msg)
			return
		}

		b.mu.Lock()
		revoked := b.revoked[claims.ID] || b.force401
		_, exists := b.accounts[claims.Subject]
		b.mu.Unlock()
		if revoked || !exists {
			writeMessage(w, http.StatusUnauthorized, "jwt expired")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Subject)))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
