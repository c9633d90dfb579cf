// Package httputil writes the JSON envelope returned by every web shell endpoint.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/observability"
)

// Envelope mirrors the REST API's response wrapper so the browser side can
// treat the shell and the API alike
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope around data
func OK(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Error writes a failure envelope
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Message: message})
}

// Fail maps err to a status code and writes it. Field errors from the form
// validators and from the API are passed through.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, env := classify(err)
	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	JSON(w, status, env)
}

func classify(err error) (int, Envelope) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, Envelope{Message: "Validation failed", Errors: verr.Fields}
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		env := Envelope{Message: apiErr.Message, Errors: apiErr.Errors}
		if apiErr.Status == 0 {
			if env.Message == "" {
				env.Message = "Course marketplace API is unreachable"
			}
			return http.StatusBadGateway, env
		}
		if env.Message == "" {
			env.Message = http.StatusText(apiErr.Status)
		}
		return apiErr.Status, env
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, Envelope{Message: "Not authenticated"}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, Envelope{Message: err.Error()}
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, Envelope{Message: "Unexpected response from the course marketplace API"}
	}
	return http.StatusInternalServerError, Envelope{Message: "Internal server error"}
}

// DecodeJSON reads the request body into v
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Fields: map[string][]string{"body": {"Invalid request body"}}}
	}
	return nil
}
