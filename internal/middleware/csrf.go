package middleware

import (
	"net/http"
	"strings"

	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/observability"
)

// CSRFHeader carries the token on state-changing requests
const CSRFHeader = "X-CSRF-Token"

// TokenVerifier checks a submitted CSRF token
type TokenVerifier interface {
	Verify(submitted string) error
}

// CSRF rejects state-changing requests that do not carry the shell's current
// token. The shell holds live credentials for whoever runs it, so any page
// the browser has open could otherwise post to it.
//
// Token sources, in order: X-CSRF-Token header, X-XSRF-Token header,
// csrf_token form field.
func CSRF(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if err := tokens.Verify(extractCSRFToken(r)); err != nil {
				observability.FromContext(r.Context()).Warn("CSRF validation failed",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err)
				httputil.Error(w, http.StatusForbidden, "Invalid or missing CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func isExemptPath(path string) bool {
	for _, exempt := range []string{"/health", "/metrics", "/ws/"} {
		if strings.HasPrefix(path, exempt) {
			return true
		}
	}
	return false
}

func extractCSRFToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeader); token != "" {
		return token
	}
	if token := r.Header.Get("X-XSRF-Token"); token != "" {
		return token
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return r.FormValue("csrf_token")
	}
	return ""
}
