package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/common"
	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/google/uuid"
)

// maxBinarySize caps avatar downloads.
const maxBinarySize = 5 << 20

// Client is the transport contract used by the session manager and the
// account services.
type Client interface {
	Login(ctx context.Context, identifier, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (json.RawMessage, error)
	VerifyOTP(ctx context.Context, identifier, otp string) (json.RawMessage, error)
	RequestPasswordReset(ctx context.Context, identifier string) (json.RawMessage, error)
	ResetPassword(ctx context.Context, identifier, newPassword string) (json.RawMessage, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.RefreshResponse, error)

	// Send performs req once with accessToken as bearer (none when empty) and
	// decodes a JSON answer into out. Non-JSON answers leave out untouched.
	Send(ctx context.Context, req *Request, accessToken string, out any) error

	// FetchBinary downloads ref, an absolute URL or a path on the backend.
	// accessToken is only sent to the backend's own origin.
	FetchBinary(ctx context.Context, ref, accessToken string) (contentType string, data []byte, err error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPClient returns a client for the backend at baseURL. An empty
// baseURL is accepted; every call then fails with ErrNotConfigured.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "api_client"),
	}
}

// resolve turns ref into an absolute URL. trusted reports whether the
// target is on the backend's own origin; only trusted targets get the bearer
// token.
func (c *HTTPClient) resolve(ref string) (target string, trusted bool, err error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, c.sameOrigin(ref), nil
	}
	if c.baseURL == "" {
		return "", false, ErrNotConfigured
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref, true, nil
}

func (c *HTTPClient) sameOrigin(ref string) bool {
	if c.baseURL == "" {
		return false
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	target, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Scheme, target.Scheme) && strings.EqualFold(base.Host, target.Host)
}

func (c *HTTPClient) do(ctx context.Context, method, ref string, body any, header http.Header, accessToken string) (*http.Response, error) {
	target, trusted, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	if !trusted && accessToken != "" {
		c.logger.Debug(ctx, "withholding credentials from foreign host", "path", ref)
		accessToken = ""
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "request failed", "request_id", requestID, "method", method, "path", ref, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c.logger.Debug(ctx, "request done", "request_id", requestID, "method", method, "path", ref,
		"status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// responseError builds an APIError from a non-2xx response, preferring the
// backend's {"message": ...}.
func responseError(resp *http.Response) *APIError {
	e := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return e
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		e.Message = body.Message
		e.fromBody = true
	}
	return e
}

func isJSON(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

func (c *HTTPClient) Send(ctx context.Context, req *Request, accessToken string, out any) error {
	resp, err := c.do(ctx, req.Method, req.Path, req.Body, req.Header, accessToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	if out == nil || !isJSON(resp) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	return c.Send(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, "", out)
}

func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.post(ctx, "/auth/login", map[string]string{"identifier": identifier, "password": password}, &resp)
	if err != nil {
		return nil, asAuthError(err, "Login failed", true)
	}
	return &resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, asAuthError(err, "Registration failed", false)
	}
	return resp, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, identifier, otp string) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.post(ctx, "/auth/verify-otp", map[string]string{"identifier": identifier, "otp": otp}, &resp); err != nil {
		return nil, asAuthError(err, "OTP verification failed", false)
	}
	return resp, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, identifier string) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.post(ctx, "/auth/request-reset", map[string]string{"identifier": identifier}, &resp); err != nil {
		return nil, asAuthError(err, "Failed to request password reset", false)
	}
	return resp, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, identifier, newPassword string) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.post(ctx, "/auth/reset-password", map[string]string{"identifier": identifier, "newPassword": newPassword}, &resp)
	if err != nil {
		return nil, asAuthError(err, "Failed to reset password", false)
	}
	return resp, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	var resp models.RefreshResponse
	if err := c.post(ctx, "/auth/refresh-token", map[string]string{"refreshToken": refreshToken}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response without access token")
	}
	return &resp, nil
}

func (c *HTTPClient) FetchBinary(ctx context.Context, ref, accessToken string) (string, []byte, error) {
	resp, err := c.do(ctx, http.MethodGet, ref, nil, nil, accessToken)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, responseError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBinarySize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if len(data) > maxBinarySize {
		return "", nil, fmt.Errorf("%s exceeds %d bytes", ref, maxBinarySize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return contentType, data, nil
}
