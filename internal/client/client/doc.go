// Package client contains the transport to the toolshare backend REST API.
//
// # Overview
//
// The package provides:
//  1. A transport contract (see the Client interface): the unauthenticated
//     account endpoints (login, register, OTP, password reset, token refresh),
//     a generic Send for authenticated calls, and FetchBinary for avatar images.
//  2. A concrete net/http implementation (see HTTPClient) that encodes JSON
//     or multipart bodies, stamps every request with an X-Request-ID, applies
//     a per-request timeout, and maps responses to typed errors.
//
// Retrying with a refreshed token is not done here; the session manager owns
// that policy and calls Send again.
//
// # Error Handling
//
//   - ErrNotConfigured: no backend base URL.
//   - ErrUnavailable: the request never produced an HTTP response.
//   - *APIError: a non-2xx response; errors.Is(err, ErrUnauthorized) holds for 401.
//   - *AuthError: a rejected account operation (bad credentials, wrong OTP).
package client
