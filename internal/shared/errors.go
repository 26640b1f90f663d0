package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Store errors
	ErrNotFound    = fmt.Errorf("not found")
	ErrConflict    = fmt.Errorf("conflict")
	ErrCorruptData = fmt.Errorf("persisted data is corrupt")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RequestError pairs a sentinel kind with a message that is safe to show to API clients.
//
// errors.Is(err, kind) holds for any RequestError created with that kind.
type RequestError struct {
	Kind    error
	Message string
}

// NewRequestError creates a [RequestError] of the given kind.
func NewRequestError(kind error, message string) error {
	return &RequestError{Kind: kind, Message: message}
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

// PublicMessage returns the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message, true
	}
	return "", false
}
