package fakebackend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func post(t *testing.T, srv *httptest.Server, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func get(t *testing.T, srv *httptest.Server, path, token string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestBackend_LoginRefreshExpire(t *testing.T) {
	b := New()
	id := b.AddUser(map[string]any{"username": "jane", "email": "jane@example.com"}, "hunter2")
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, _ := post(t, srv, "/auth/login", "", map[string]string{"identifier": "jane@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := post(t, srv, "/auth/login", "", map[string]string{"identifier": "JANE", "password": "hunter2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	access := body["accessToken"].(string)
	refresh := body["refreshToken"].(string)
	require.Equal(t, id, body["user"].(map[string]any)["id"])

	require.Equal(t, http.StatusOK, get(t, srv, "/users/"+id, access))

	b.ExpireAccessTokens()
	require.Equal(t, http.StatusUnauthorized, get(t, srv, "/users/"+id, access))

	resp, body = post(t, srv, "/auth/refresh-token", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, http.StatusOK, get(t, srv, "/users/"+id, body["accessToken"].(string)))

	require.Equal(t, 2, b.Calls("POST /auth/login"))
	require.Equal(t, 1, b.Calls("POST /auth/refresh-token"))
}

func TestBackend_RegisterVerify(t *testing.T) {
	b := New()
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, _ := post(t, srv, "/auth/register", "", map[string]any{"username": "bob", "email": "bob@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = post(t, srv, "/auth/login", "", map[string]string{"identifier": "bob", "password": "pw"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = post(t, srv, "/auth/verify-otp", "", map[string]string{"identifier": "bob", "otp": "000000"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := post(t, srv, "/auth/verify-otp", "", map[string]string{"identifier": "bob", "otp": DefaultOTP})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["accessToken"])
	require.Equal(t, true, body["user"].(map[string]any)["isVerified"])
}

func TestBackend_ListUsersRequiresAdmin(t *testing.T) {
	b := New()
	b.AddUser(map[string]any{"username": "jane"}, "pw")
	b.AddUser(map[string]any{"username": "root", "isAdmin": true}, "pw")
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	_, body := post(t, srv, "/auth/login", "", map[string]string{"identifier": "jane", "password": "pw"})
	resp, _ := post(t, srv, "/users/all", body["accessToken"].(string), map[string]any{"page": 1, "pageSize": 10})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, body = post(t, srv, "/auth/login", "", map[string]string{"identifier": "root", "password": "pw"})
	resp, body = post(t, srv, "/users/all", body["accessToken"].(string), map[string]any{"page": 1, "pageSize": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["usersList"].(map[string]any)
	require.Len(t, list["data"], 1)
	require.Equal(t, float64(2), list["total"])
}
