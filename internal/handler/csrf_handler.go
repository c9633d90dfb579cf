package handler

import (
	"net/http"

	"eduplatform-web/internal/httputil"
)

// TokenSource hands out the current CSRF token
type TokenSource interface {
	Token() string
}

// CSRFToken handles GET /api/csrf-token
func CSRFToken(tokens TokenSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		httputil.OK(w, http.StatusOK, map[string]string{"csrfToken": tokens.Token()}, "")
	}
}
