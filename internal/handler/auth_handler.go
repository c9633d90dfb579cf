package handler

import (
	"net/http"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/routes"
	"eduplatform-web/internal/service"
)

// AuthHandler handles the authentication forms and the current user's profile
type AuthHandler struct {
	auth    *service.AuthService
	session Session
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth *service.AuthService, session Session) *AuthHandler {
	return &AuthHandler{auth: auth, session: session}
}

// AuthResponse tells the browser where to go next
type AuthResponse struct {
	Redirect string       `json:"redirect"`
	User     *domain.User `json:"user,omitempty"`
}

// RegisterRequest is the registration form. The confirmation and the terms
// checkbox are checked here and never sent to the API.
type RegisterRequest struct {
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Role            domain.Role `json:"role"`
	AcceptTerms     bool        `json:"acceptTerms"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := httputil.DecodeJSON(r, &creds); err != nil {
		httputil.Fail(w, r, err)
		return
	}

	landing, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, AuthResponse{Redirect: landing, User: h.session.User()}, "Login successful")
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}

	next, err := h.auth.Register(r.Context(), domain.RegisterRequest{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            req.Role,
		AcceptTerms:     req.AcceptTerms,
	})
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusCreated, AuthResponse{Redirect: next}, "Registration successful")
}

// Logout handles POST /api/auth/logout. The local session is over even when
// the API could not be told, so that case still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	message := "Logged out successfully"
	if err := h.auth.Logout(r.Context()); err != nil {
		message = "Logged out locally"
	}
	httputil.OK(w, http.StatusOK, AuthResponse{Redirect: routes.Login}, message)
}

// VerifyEmail handles GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, AuthResponse{Redirect: routes.Login}, "Email verified successfully")
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, nil, "Verification email sent")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, nil, "Password reset email sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	next, err := h.auth.ResetPassword(r.Context(), req)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, AuthResponse{Redirect: next}, "Password reset successfully")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, nil, "Password changed successfully")
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	res := h.auth.CurrentUser(r.Context())
	if res.Status == querycache.StatusIdle {
		httputil.Fail(w, r, domain.ErrNotAuthenticated)
		return
	}
	writeResult(w, r, res)
}

// UpdateMe handles PUT /api/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), req)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, user, "Profile updated successfully")
}
