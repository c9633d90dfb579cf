package middleware

import (
	"net/http"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/observability"
	"eduplatform-web/internal/routes"
)

// SessionReader exposes the current session to the guards
type SessionReader interface {
	Snapshot() domain.SessionState
}

// RequireAuth guards a UI route. Anonymous visitors are redirected to the
// login page, signed-in users without one of roles to their landing page.
func RequireAuth(sess SessionReader, roles ...domain.Role) func(http.Handler) http.Handler {
	return guard(sess, func(state domain.SessionState) routes.Decision {
		return routes.Protect(state, roles...)
	})
}

// PublicOnly guards the login and registration pages
func PublicOnly(sess SessionReader) func(http.Handler) http.Handler {
	return guard(sess, routes.PublicOnly)
}

// Route applies the guard registered for rt in the route table
func Route(sess SessionReader, rt routes.Route) func(http.Handler) http.Handler {
	return guard(sess, rt.Evaluate)
}

func guard(sess SessionReader, decide func(domain.SessionState) routes.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := sess.Snapshot()
			if d := decide(state); !d.Allowed() {
				observability.FromContext(r.Context()).Debug("route guard redirect",
					"path", r.URL.Path, "location", d.Redirect)
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, withUser(r, state))
		})
	}
}

// APIAuth guards JSON endpoints. Instead of redirecting it answers 401 for an
// anonymous caller and 403 for a role mismatch.
func APIAuth(sess SessionReader, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := sess.Snapshot()
			if !state.IsAuthenticated {
				httputil.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if d := routes.Protect(state, roles...); !d.Allowed() {
				httputil.Error(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, withUser(r, state))
		})
	}
}

func withUser(r *http.Request, state domain.SessionState) *http.Request {
	if state.User == nil || state.User.ID == "" {
		return r
	}
	return r.WithContext(observability.WithUserID(r.Context(), state.User.ID))
}
