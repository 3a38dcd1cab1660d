package listmonk

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the listmonk API. The body is
// kept verbatim so callers can surface the platform's own message.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("listmonk API error (status %d): %s", e.Status, e.Body)
}

// IsConflict reports whether err is the platform's signal that a
// create-subscriber call targeted an email that already exists.
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusConflict
}

// ProtocolError reports a response whose JSON shape does not match what
// the platform returns for the endpoint. It is distinct from APIError:
// the call succeeded at the HTTP level but the body was unusable.
type ProtocolError struct {
	Endpoint string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}
