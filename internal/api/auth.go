package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/teamkonekt/konekt/internal/model"
)

// LoginRequest is the body of POST /login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the body returned by POST /login/.
type loginResponse struct {
	Token       string `json:"token"`
	UserType    string `json:"user_type"`
	CompanyName string `json:"company_name"`
}

// Login exchanges credentials for a session. It does not install the
// token on the client; session.Manager does that.
func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	req := LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}

	body, err := c.send(ctx, http.MethodPost, "/login/", req, false)
	if err != nil {
		return model.Session{}, err
	}

	var resp loginResponse
	if err := decodeInto(http.MethodPost, "/login/", body, &resp); err != nil {
		return model.Session{}, err
	}

	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return model.Session{}, &AuthError{Message: "login response carried no token"}
	}

	return model.Session{
		Token:            token,
		Role:             model.ParseRole(resp.UserType),
		OrganizationName: resp.CompanyName,
	}, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Post(ctx, "/logout/", struct{}{}, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// CurrentUser returns the profile of the signed-in user.
func (c *Client) CurrentUser(ctx context.Context) (model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.Get(ctx, "/auth/user/", &profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("fetching current user: %w", err)
	}
	return profile, nil
}

// ChangePasswordRequest is the body of POST /change-password/.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword updates the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return c.Post(ctx, "/change-password/", req, nil)
}

// SetSummaryTime sets the manager's daily summary time (HH:MM).
func (c *Client) SetSummaryTime(ctx context.Context, hhmm string) error {
	return c.Post(ctx, "/manager/set-summary-time/", map[string]string{"time": hhmm}, nil)
}
