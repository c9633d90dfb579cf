package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"eduplatform-web/internal/domain"
)

// Login exchanges credentials for tokens. The reply is accepted either as the
// envelope's data or as a bare top-level object; a reply without an access
// token is a malformed response.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error) {
	resp, err := c.roundTrip(ctx, request{
		method: http.MethodPost, path: "/auth/login", route: "/auth/login",
		body: creds, noRefresh: true,
	})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return decodeLogin("login", resp.body)
}

// Refresh exchanges a refresh token for a new access token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.LoginResponse, error) {
	q := url.Values{}
	q.Set("refreshToken", refreshToken)

	resp, err := c.send(ctx, request{
		method: http.MethodPost, path: "/auth/refresh", route: "/auth/refresh",
		query: q, noRefresh: true,
	}, "")
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return decodeLogin("refresh", resp.body)
}

func decodeLogin(operation string, body []byte) (domain.LoginResponse, error) {
	var reply struct {
		domain.LoginResponse
		Data *domain.LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return domain.LoginResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, operation, err)
	}

	switch {
	case reply.Data != nil && reply.Data.AccessToken != "":
		return *reply.Data, nil
	case reply.AccessToken != "":
		return reply.LoginResponse, nil
	}
	return domain.LoginResponse{}, &domain.MalformedResponseError{Operation: operation, Field: "accessToken"}
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) error {
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/register", route: "/auth/register",
		body: req, noRefresh: true,
	}, nil)
}

// Logout invalidates the session on the server. A 401 here means the server
// already forgot the session, so no refresh is attempted.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/logout", route: "/auth/logout", noRefresh: true,
	}, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	q := url.Values{}
	q.Set("token", token)
	return c.do(ctx, request{
		method: http.MethodGet, path: "/auth/verify-email", route: "/auth/verify-email",
		query: q, noRefresh: true,
	}, nil)
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	q := url.Values{}
	q.Set("email", email)
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/resend-verification", route: "/auth/resend-verification",
		query: q, noRefresh: true,
	}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	q := url.Values{}
	q.Set("email", email)
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/forgot-password", route: "/auth/forgot-password",
		query: q, noRefresh: true,
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	q := url.Values{}
	q.Set("token", token)
	q.Set("newPassword", newPassword)
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/reset-password", route: "/auth/reset-password",
		query: q, noRefresh: true,
	}, nil)
}

func (c *Client) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	return c.do(ctx, request{
		method: http.MethodPost, path: "/auth/change-password", route: "/auth/change-password",
		body: req,
	}, nil)
}
