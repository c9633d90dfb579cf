package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/service"
)

// UserHandler serves the admin user management endpoints
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type statusRequest struct {
	Status domain.UserStatus `json:"status"`
}

// List handles GET /api/users. With ?q= it searches instead of listing.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		writeResult(w, r, h.users.Search(r.Context(), q, page, size))
		return
	}
	writeResult(w, r, h.users.Users(r.Context(), page, size))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, h.users.User(r.Context(), chi.URLParam(r, "id")))
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, h.users.Stats(r.Context(), chi.URLParam(r, "id")))
}

// UpdateStatus handles PUT /api/users/{id}/status
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	user, err := h.users.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, user, "User status updated")
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, nil, "User deleted")
}
