// Package notify turns failures and successes into user-visible notifications
// (toasts) and delivers them.
package notify

import (
	"errors"
	"strings"
	"time"

	"eduplatform-web/internal/domain"

	"github.com/google/uuid"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	QueryFallbackTitle    = "An error occurred"
	MutationFallbackTitle = "Operation failed"
	MutationErrorDuration = 5 * time.Second
)

// Notification is a single toast
type Notification struct {
	ID          string        `json:"id"`
	Level       Level         `json:"level"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// New builds a notification with a fresh ID
func New(level Level, title, description string) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

func Success(title, description string) Notification {
	return New(LevelSuccess, title, description)
}

// FromError maps a failure to the notification the user should see. It
// returns false for authentication failures, which the token refresh flow
// handles without a toast.
func FromError(err error, fallback string) (Notification, bool) {
	if err == nil || domain.IsUnauthenticated(err) {
		return Notification{}, false
	}

	title := fallback
	var lines []string

	var apiErr *domain.APIError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			title = apiErr.Message
		}
		lines = apiErr.FieldLines()
	case errors.As(err, &verr):
		lines = (&domain.APIError{Errors: verr.Fields}).FieldLines()
	case errors.Is(err, domain.ErrMalformedResponse):
		lines = []string{"The server sent an incomplete response"}
	}

	return New(LevelError, title, strings.Join(lines, "\n")), true
}

// FromRejectedCredentials maps the failure of an endpoint that checks the
// credentials or token it is sent. There a 401 means the input was wrong,
// so it gets a toast with description instead of being left to the refresh flow.
func FromRejectedCredentials(err error, fallback, description string) (Notification, bool) {
	if domain.IsUnauthenticated(err) {
		return New(LevelError, fallback, description), true
	}
	return FromError(err, fallback)
}

// FromQueryError maps a terminal query failure
func FromQueryError(err error) (Notification, bool) {
	return FromError(err, QueryFallbackTitle)
}

// FromMutationError maps a failed mutation. Mutation toasts stay up longer.
func FromMutationError(err error) (Notification, bool) {
	n, ok := FromError(err, MutationFallbackTitle)
	if ok {
		n.Duration = MutationErrorDuration
	}
	return n, ok
}
