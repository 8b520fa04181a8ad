package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// parseLocation reads "lat,lng".
func parseLocation(s string) (*models.Location, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("location must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude %q", latS)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid longitude %q", lngS)
	}
	return &models.Location{Lat: lat, Lng: lng}, nil
}

// Register prompts for the account details and creates a pending account.
// The backend then sends an OTP to be confirmed with "verify".
func (a *App) Register(ctx context.Context) error {
	var req models.RegisterRequest
	var err error

	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Username", &req.Username},
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Email", &req.Email},
		{"Phone number (optional)", &req.PhoneNumber},
	} {
		if *f.dst, err = a.ask(f.prompt); err != nil {
			return err
		}
	}

	loc, err := a.ask("Location as lat,lng")
	if err != nil {
		return err
	}
	if req.Location, err = parseLocation(loc); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if err := a.accounts.Register(ctx, req); err != nil {
		return err
	}
	a.println("Account created. Enter the code we sent you with 'verify'.")
	return nil
}

// Verify confirms a registration OTP; the backend signs the user in.
func (a *App) Verify(ctx context.Context) error {
	identifier, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	otp, err := a.ask("Verification code")
	if err != nil {
		return err
	}

	u, err := a.accounts.VerifyOTP(ctx, identifier, otp)
	if err != nil {
		return err
	}
	if u == nil {
		a.println("Verified. You can log in now.")
		return nil
	}
	a.println("Verified. Welcome, " + u.DisplayName() + "!")
	return nil
}

// Forgot walks through the reset flow: request a code, confirm it, set a
// new password.
func (a *App) Forgot(ctx context.Context) error {
	identifier, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	if err := a.accounts.RequestPasswordReset(ctx, identifier); err != nil {
		return err
	}

	otp, err := a.ask("Code sent to you")
	if err != nil {
		return err
	}
	if err := a.accounts.VerifyResetOTP(ctx, identifier, otp); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.accounts.ResetPassword(ctx, identifier, string(password)); err != nil {
		return err
	}
	a.println("Password updated. You can log in now.")
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	identifier, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.sessions.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}
	a.println("Welcome, " + s.User.DisplayName() + "!")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	a.println("Logged out.")
	return nil
}
