// Package services contains application services for the toolshare client.
// This file defines the account service: registration, OTP verification and
// password reset, the flows that run before a session exists.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
)

// AccountService defines the account flows for the CLI.
//
// Contract:
//   - Register: create a pending account; the backend sends an OTP.
//   - VerifyOTP: confirm the OTP. When the backend answers with a token pair
//     the session is established and the user returned; otherwise the user
//     is nil and must log in.
//   - RequestPasswordReset: have the backend send a reset OTP.
//   - VerifyResetOTP: confirm a reset OTP without signing in.
//   - ResetPassword: set a new password.
//
// Backend rejections are *client.AuthError carrying a user-facing message.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) error
	VerifyOTP(ctx context.Context, identifier, otp string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, identifier string) error
	VerifyResetOTP(ctx context.Context, identifier, otp string) error
	ResetPassword(ctx context.Context, identifier, newPassword string) error
}

// SessionEstablisher persists a session handed out by the backend.
type SessionEstablisher interface {
	Establish(ctx context.Context, resp *models.LoginResponse) (*models.Session, error)
}

type accountService struct {
	client   client.Client
	sessions SessionEstablisher
}

func NewAccountService(client client.Client, sessions SessionEstablisher) AccountService {
	return &accountService{client: client, sessions: sessions}
}

func (a *accountService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := a.client.Register(ctx, req)
	return err
}

func (a *accountService) VerifyOTP(ctx context.Context, identifier, otp string) (*models.User, error) {
	raw, err := a.client.VerifyOTP(ctx, identifier, otp)
	if err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if len(raw) == 0 || json.Unmarshal(raw, &resp) != nil || resp.AccessToken == "" {
		return nil, nil
	}

	s, err := a.sessions.Establish(ctx, &resp)
	if err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}
	return s.User, nil
}

func (a *accountService) RequestPasswordReset(ctx context.Context, identifier string) error {
	_, err := a.client.RequestPasswordReset(ctx, identifier)
	return err
}

func (a *accountService) VerifyResetOTP(ctx context.Context, identifier, otp string) error {
	_, err := a.client.VerifyOTP(ctx, identifier, otp)
	return err
}

func (a *accountService) ResetPassword(ctx context.Context, identifier, newPassword string) error {
	_, err := a.client.ResetPassword(ctx, identifier, newPassword)
	return err
}
