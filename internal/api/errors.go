package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors, one per failure class. Use errors.Is to classify.
var (
	// ErrUnauthorized means the session is invalid or expired. Callers clear
	// the session and send the user back to login.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrInvalidInput means the backend rejected the request body (HTTP 400).
	ErrInvalidInput = errors.New("api: invalid input")
	// ErrNetwork means no response was received.
	ErrNetwork = errors.New("api: network error")
	// ErrServer covers every other non-2xx response.
	ErrServer = errors.New("api: server error")
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	// Fields holds field-level messages keyed by field name, when the backend supplies them.
	Fields map[string][]string
	// Detail is the backend's non-field message, if any.
	Detail string
	Path   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Path, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s returned %d", e.Path, e.StatusCode)
}

// Is maps status codes onto the sentinel errors.
func (e *Error) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	case http.StatusBadRequest:
		return target == ErrInvalidInput
	default:
		return target == ErrServer
	}
}

// Message joins the field messages in field-name order, falling back to Detail.
func (e *Error) Message() string {
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		var parts []string
		for _, name := range names {
			parts = append(parts, e.Fields[name]...)
		}
		return strings.Join(parts, " ")
	}
	return e.Detail
}

// NetworkError wraps a transport failure where no response arrived.
type NetworkError struct {
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ValidationError is a client-side check that failed before any request was made.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UserMessage converts any error from this package into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var apiErr *Error
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Authentication failed. Please log in again."
	case errors.Is(err, ErrInvalidInput):
		if errors.As(err, &apiErr) {
			if msg := apiErr.Message(); msg != "" {
				return msg
			}
		}
		return "Please check the data you entered."
	case errors.Is(err, ErrNetwork):
		return "Network error. Could not connect to the server."
	case errors.Is(err, ErrServer):
		return "A server error occurred. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}
