package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/testutil"
)

func TestSettingsHandler_Defaults(t *testing.T) {
	h := newHarness(t)

	got := testutil.DecodeData[domain.Preferences](t, h.get(t, "/api/settings"), http.StatusOK)
	assert.Equal(t, domain.ThemeSystem, got.Theme)
	assert.False(t, got.SidebarCollapsed)
}

func TestSettingsHandler_Update(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPut, "/api/settings", map[string]any{"theme": "dark"})
	got := testutil.DecodeData[domain.Preferences](t, w, http.StatusOK)
	assert.Equal(t, domain.ThemeDark, got.Theme)
	assert.False(t, got.SidebarCollapsed)

	w = h.do(t, http.MethodPut, "/api/settings", map[string]any{"sidebarCollapsed": true})
	got = testutil.DecodeData[domain.Preferences](t, w, http.StatusOK)
	assert.Equal(t, domain.ThemeDark, got.Theme, "omitted theme is kept")
	assert.True(t, got.SidebarCollapsed)
	assert.Equal(t, got, h.prefs.Snapshot())
}

func TestSettingsHandler_Toggles(t *testing.T) {
	h := newHarness(t)

	got := testutil.DecodeData[domain.Preferences](t, h.do(t, http.MethodPost, "/api/settings/theme/toggle", nil), http.StatusOK)
	assert.Equal(t, domain.ThemeLight, got.Theme)
	got = testutil.DecodeData[domain.Preferences](t, h.do(t, http.MethodPost, "/api/settings/theme/toggle", nil), http.StatusOK)
	assert.Equal(t, domain.ThemeDark, got.Theme)

	got = testutil.DecodeData[domain.Preferences](t, h.do(t, http.MethodPost, "/api/settings/sidebar/toggle", nil), http.StatusOK)
	assert.True(t, got.SidebarCollapsed)
}

func TestSettingsHandler_RejectsUnknownTheme(t *testing.T) {
	h := newHarness(t)
	settings := NewSettingsHandler(h.prefs)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/api/settings", map[string]any{"theme": "neon"})
	w := testutil.Serve(http.HandlerFunc(settings.Update), req)

	testutil.DecodeEnvelope(t, w, http.StatusBadRequest)
	assert.Equal(t, domain.ThemeSystem, h.prefs.Theme())
}
