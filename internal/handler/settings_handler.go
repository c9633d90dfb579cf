package handler

import (
	"net/http"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/preferences"
)

// SettingsHandler reads and writes the UI preferences
type SettingsHandler struct {
	prefs *preferences.Store
}

func NewSettingsHandler(prefs *preferences.Store) *SettingsHandler {
	return &SettingsHandler{prefs: prefs}
}

type settingsRequest struct {
	Theme            *domain.Theme `json:"theme"`
	SidebarCollapsed *bool         `json:"sidebarCollapsed"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, http.StatusOK, h.prefs.Snapshot(), "")
}

// Update handles PUT /api/settings. Fields left out keep their value.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	if req.Theme != nil {
		if err := h.prefs.SetTheme(*req.Theme); err != nil {
			httputil.Fail(w, r, err)
			return
		}
	}
	if req.SidebarCollapsed != nil {
		h.prefs.SetSidebarCollapsed(*req.SidebarCollapsed)
	}
	httputil.OK(w, http.StatusOK, h.prefs.Snapshot(), "Settings saved")
}

func (h *SettingsHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	h.prefs.ToggleTheme()
	httputil.OK(w, http.StatusOK, h.prefs.Snapshot(), "")
}

func (h *SettingsHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	h.prefs.ToggleSidebarCollapsed()
	httputil.OK(w, http.StatusOK, h.prefs.Snapshot(), "")
}
