package handler

import (
	"net/http"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/preferences"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/routes"
	"eduplatform-web/internal/service"
)

// PageView is the model of a UI page. Every page carries the session
// summary and the preferences so the shell can render its frame.
type PageView struct {
	Page          string             `json:"page"`
	Authenticated bool               `json:"authenticated"`
	User          *domain.User       `json:"user,omitempty"`
	Landing       string             `json:"landing"`
	CSRFToken     string             `json:"csrfToken,omitempty"`
	Preferences   domain.Preferences `json:"preferences"`
	Data          any                `json:"data,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// PageHandler serves the UI routes that are not course listings
type PageHandler struct {
	session Session
	auth    *service.AuthService
	users   *service.UserService
	prefs   *preferences.Store
	tokens  TokenSource
}

func NewPageHandler(session Session, auth *service.AuthService, users *service.UserService, prefs *preferences.Store, tokens TokenSource) *PageHandler {
	return &PageHandler{session: session, auth: auth, users: users, prefs: prefs, tokens: tokens}
}

func (h *PageHandler) view(page string) PageView {
	state := h.session.Snapshot()
	v := PageView{
		Page:          page,
		Authenticated: state.IsAuthenticated,
		User:          state.User,
		Landing:       routes.Login,
		CSRFToken:     h.tokens.Token(),
		Preferences:   h.prefs.Snapshot(),
	}
	if state.IsAuthenticated {
		v.Landing = routes.LandingRoute(state.Role())
	}
	return v
}

// Landing handles GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, http.StatusOK, h.view("landing"), "")
}

// Public serves a form page that needs nothing but the CSRF token. A token
// from an emailed link (?token=) is passed through.
func (h *PageHandler) Public(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := h.view(page)
		if token := r.URL.Query().Get("token"); token != "" {
			v.Data = map[string]string{"token": token}
		}
		httputil.OK(w, http.StatusOK, v, "")
	}
}

// VerifyEmail handles GET /verify-email?token= from the verification email
func (h *PageHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	v := h.view("verify-email")
	v.Data = map[string]any{"verified": true, "redirect": routes.Login}
	httputil.OK(w, http.StatusOK, v, "Email verified successfully")
}

// Dashboard serves a role dashboard
func (h *PageHandler) Dashboard(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OK(w, http.StatusOK, h.view(page), "")
	}
}

// AdminDashboard adds the first page of users to the dashboard. A failed
// listing still renders the page.
func (h *PageHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	v := h.view("admin-dashboard")
	res := h.users.Users(r.Context(), 0, service.DefaultPageSize)
	if res.HasData {
		v.Data = res.Data
	}
	if res.Err != nil {
		v.Error = "Failed to load users"
	}
	httputil.OK(w, http.StatusOK, v, "")
}

// Profile serves the profile page with the freshest profile available
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	v := h.view("profile")
	res := h.auth.CurrentUser(r.Context())
	switch {
	case res.HasData:
		v.User = &res.Data
	case res.Status == querycache.StatusError:
		v.Error = "Failed to load profile"
	}
	httputil.OK(w, http.StatusOK, v, "")
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, http.StatusOK, h.view("settings"), "")
}
