package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedResponse = errors.New("malformed response")
	ErrStateNotFound     = errors.New("state not found")
)

// ErrorKind classifies a failure by its origin
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindAuthentication
	KindValidation
	KindClient
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindClient:
		return "client"
	case KindMalformed:
		return "malformed"
	default:
		return "transient"
	}
}

// APIError is a failed call to the REST API. Status is 0 when the server
// could not be reached at all.
type APIError struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Err     error               `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return "api unreachable: " + msg
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// Kind classifies the error
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.Status == http.StatusUnauthorized:
		return KindAuthentication
	case len(e.Errors) > 0:
		return KindValidation
	case e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests:
		return KindClient
	default:
		return KindTransient
	}
}

// FieldLines renders the field errors as "field: msg1, msg2", one per field,
// ordered by field name.
func (e *APIError) FieldLines() []string {
	return fieldLines(e.Errors)
}

// MalformedResponseError is a success-status reply missing a required field
type MalformedResponseError struct {
	Operation string
	Field     string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s: missing %s", ErrMalformedResponse, e.Operation, e.Field)
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// ValidationError is a client-side form validation failure
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(fieldLines(e.Fields), "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Add records a message for field
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns nil when no field failed
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StatusOf extracts the HTTP status of an API error, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// KindOf classifies any error returned by the client stack
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	if errors.Is(err, ErrMalformedResponse) {
		return KindMalformed
	}
	if errors.Is(err, ErrInvalidInput) {
		return KindValidation
	}
	return KindTransient
}

// IsUnauthenticated reports whether err signals invalid or expired credentials
func IsUnauthenticated(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func fieldLines(fields map[string][]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+strings.Join(fields[name], ", "))
	}
	return lines
}
