package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"eduplatform-web/internal/observability"
)

// RequestIDHeader is echoed on every response and forwarded to the REST API
const RequestIDHeader = "X-Request-ID"

// RequestID makes the request id available to observability.FromContext and
// to the API client. It reuses the id chi's RequestID middleware assigned, or
// the caller's X-Request-ID, before minting a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = chimiddleware.GetReqID(r.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
	})
}
