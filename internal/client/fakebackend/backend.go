// Package fakebackend is an in-process stand-in for the toolshare REST API.
// It implements the endpoints the client consumes with in-memory state and
// real JWT access tokens, plus knobs for failure scenarios and per-route
// call counters.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultOTP is the code every registration and reset expects.
const DefaultOTP = "123456"

type account struct {
	password string
	doc      map[string]any
}

type upload struct {
	contentType string
	data        []byte
}

type Backend struct {
	mu sync.Mutex

	secret    []byte
	accessTTL time.Duration

	accounts map[string]*account // by user id
	refresh  map[string]string   // refresh token -> user id
	revoked  map[string]bool     // access token ids
	issued   []string            // live access token ids
	uploads  map[string]upload   // path -> file

	rejectRefresh bool
	rotateRefresh bool
	force401      bool
	refreshDelay  time.Duration

	calls   map[string]int
	headers map[string]http.Header

	router chi.Router
}

type Option func(*Backend)

// WithAccessTTL sets the lifetime of minted access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(b *Backend) { b.accessTTL = d }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		secret:    []byte(uuid.NewString()),
		accessTTL: 15 * time.Minute,
		accounts:  make(map[string]*account),
		refresh:   make(map[string]string),
		revoked:   make(map[string]bool),
		uploads:   make(map[string]upload),
		calls:     make(map[string]int),
		headers:   make(map[string]http.Header),
	}
	for _, o := range opts {
		o(b)
	}
	b.router = b.routes()
	return b
}

func (b *Backend) Handler() http.Handler {
	return b.router
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", b.handleLogin)
		r.Post("/register", b.handleRegister)
		r.Post("/verify-otp", b.handleVerifyOTP)
		r.Post("/request-reset", b.handleRequestReset)
		r.Post("/reset-password", b.handleResetPassword)
		r.Post("/refresh-token", b.handleRefresh)
		r.With(b.authenticate).Post("/logout", b.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)
		r.Get("/users/{id}", b.handleGetUser)
		r.Post("/users/all", b.handleListUsers)
		r.Put("/users", b.handleUpdateUser)
		r.Put("/profile", b.handleUpdateProfile)
		r.Post("/profile/upload-avatar", b.handleUploadAvatar)
		r.Get("/uploads/{name}", b.handleGetUpload)
	})
	return r
}

// record counts calls by "METHOD /path" and keeps the last request headers.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls[key]++
		b.headers[key] = r.Header.Clone()
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Calls returns how many requests hit route, written as "POST /auth/login".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastHeader returns the headers of the latest request to route.
func (b *Backend) LastHeader(route string) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[route].Clone()
}

// AddUser seeds a verified account and returns its id. doc may carry any
// user fields; id is generated when absent.
func (b *Backend) AddUser(doc map[string]any, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc = cloneDoc(doc)
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}
	if _, ok := doc["isVerified"]; !ok {
		doc["isVerified"] = true
	}
	b.accounts[id] = &account{password: password, doc: doc}
	return id
}

// User returns a copy of the stored user document.
func (b *Backend) User(id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[id]; ok {
		return cloneDoc(a.doc)
	}
	return nil
}

// AddUpload makes a file available under path, e.g. "/uploads/jane.png".
func (b *Backend) AddUpload(path, contentType string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads[path] = upload{contentType: contentType, data: data}
}

// ExpireAccessTokens revokes every access token minted so far.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.issued {
		b.revoked[id] = true
	}
	b.issued = nil
}

// RejectRefresh makes /auth/refresh-token answer 401.
func (b *Backend) RejectRefresh(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectRefresh = v
}

// RotateRefresh makes /auth/refresh-token issue a new refresh token as well.
func (b *Backend) RotateRefresh(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotateRefresh = v
}

// Force401 makes every authenticated route answer 401 regardless of token.
func (b *Backend) Force401(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.force401 = v
}

// SetRefreshDelay holds each refresh response for d.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// RefreshTokenValid reports whether token is still accepted by refresh.
func (b *Backend) RefreshTokenValid(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.refresh[token]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if m, ok := v.(map[string]any); ok {
			v = cloneDoc(m)
		}
		out[k] = v
	}
	return out
}

// findLocked resolves an email or username to an account.
func (b *Backend) findLocked(identifier string) (string, *account) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for id, a := range b.accounts {
		email, _ := a.doc["email"].(string)
		username, _ := a.doc["username"].(string)
		if strings.ToLower(email) == identifier || strings.ToLower(username) == identifier {
			return id, a
		}
	}
	return "", nil
}
