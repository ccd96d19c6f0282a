package backend

import (
	"context"
	"net/http"
)

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// AuthData is the data payload both login and register return on success.
type AuthData struct {
	User   map[string]any `json:"user"`
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) *Response {
	return c.do(ctx, http.MethodPost, "/auth/login", "", req, "auth")
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) *Response {
	return c.do(ctx, http.MethodPost, "/auth/register", "", req, "auth")
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) *Response {
	return c.do(ctx, http.MethodPost, "/auth/password-reset/request", "", map[string]string{"email": email}, "auth")
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) *Response {
	body := map[string]string{"token": resetToken, "password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/password-reset/confirm", "", body, "auth")
}

func (c *Client) VerifyTwoFactor(ctx context.Context, email, code string) *Response {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/auth/2fa/verify", "", body, "auth")
}

func (c *Client) ResendTwoFactor(ctx context.Context, email string) *Response {
	return c.do(ctx, http.MethodPost, "/auth/2fa/resend", "", map[string]string{"email": email}, "auth")
}
