package domain

import (
	"errors"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrSessionChanged   = errors.New("session changed")
)

// Tokens is the access/refresh token pair held by an authenticated session
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionState is the client-held record of the current principal.
// It is also the persisted layout: {user, tokens, isAuthenticated}.
type SessionState struct {
	User            *User   `json:"user"`
	Tokens          *Tokens `json:"tokens"`
	IsAuthenticated bool    `json:"isAuthenticated"`
}

// Consistent reports whether the authentication flag agrees with the held
// credentials: authenticated iff an access token and a user are both present.
func (s SessionState) Consistent() bool {
	hasCreds := s.Tokens != nil && s.Tokens.AccessToken != "" && s.User != nil
	return s.IsAuthenticated == hasCreds
}

// Role returns the role of the held user, or "" when anonymous
func (s SessionState) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Clone returns a deep copy so callers cannot mutate store-owned state
func (s SessionState) Clone() SessionState {
	out := SessionState{IsAuthenticated: s.IsAuthenticated}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Tokens != nil {
		t := *s.Tokens
		out.Tokens = &t
	}
	return out
}

// LoginResponse is the payload of a successful login or token refresh
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Credentials is the body of POST /auth/login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            Role   `json:"role,omitempty"`
	AcceptTerms     bool   `json:"-"`
}

// ChangePasswordRequest is the body of POST /auth/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPasswordRequest carries the token from a reset email and the new password
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
