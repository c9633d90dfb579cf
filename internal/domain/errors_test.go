package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Kind(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want ErrorKind
	}{
		{"unauthorized", &APIError{Status: http.StatusUnauthorized}, KindAuthentication},
		{"validation", &APIError{Status: http.StatusBadRequest, Errors: map[string][]string{"email": {"required"}}}, KindValidation},
		{"not_found", &APIError{Status: http.StatusNotFound}, KindClient},
		{"forbidden", &APIError{Status: http.StatusForbidden}, KindClient},
		{"rate_limited", &APIError{Status: http.StatusTooManyRequests}, KindTransient},
		{"server", &APIError{Status: http.StatusInternalServerError}, KindTransient},
		{"unreachable", &APIError{Status: 0, Err: errors.New("dial tcp")}, KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Kind())
		})
	}
}

func TestAPIError_FieldLines(t *testing.T) {
	err := &APIError{
		Status: http.StatusBadRequest,
		Errors: map[string][]string{
			"password": {"too short", "needs a digit"},
			"email":    {"invalid"},
		},
	}

	assert.Equal(t, []string{"email: invalid", "password: too short, needs a digit"}, err.FieldLines())
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error 404: not found", (&APIError{Status: 404, Message: "not found"}).Error())
	assert.Equal(t, "api unreachable: dial tcp", (&APIError{Err: errors.New("dial tcp")}).Error())
}

func TestKindOf(t *testing.T) {
	malformed := &MalformedResponseError{Operation: "login", Field: "accessToken"}
	wrapped := fmt.Errorf("login: %w", &APIError{Status: http.StatusUnauthorized})

	assert.Equal(t, KindMalformed, KindOf(malformed))
	assert.True(t, errors.Is(malformed, ErrMalformedResponse))
	assert.Equal(t, KindAuthentication, KindOf(wrapped))
	assert.True(t, IsUnauthenticated(wrapped))
	assert.Equal(t, KindValidation, KindOf(&ValidationError{Fields: map[string][]string{"email": {"required"}}}))
	assert.Equal(t, KindTransient, KindOf(errors.New("boom")))
}

func TestValidationError_OrNil(t *testing.T) {
	var verr ValidationError
	assert.NoError(t, verr.OrNil())

	verr.Add("email", "Email is required")
	err := verr.OrNil()
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "email: Email is required")
}
