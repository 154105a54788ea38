// Package apierr holds the errors shared by everything that talks to the
// remote API.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork matches any failure that happened before a response was
// received (DNS, dial, TLS, reset, ctx deadline while waiting for headers).
var ErrNetwork = errors.New("network error")

// NetworkError wraps the transport failure. errors.Is(err, ErrNetwork) is true.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Network builds a NetworkError for op.
func Network(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Op      string
	Status  int
	Message string // remote-provided, safe to show to the user
}

func (e *APIError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
}

// FromStatus builds an APIError, falling back to the status text when the
// remote didn't send a message.
func FromStatus(op string, status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{Op: op, Status: status, Message: message}
}

// IsUnauthorized reports whether err is a 401 from the remote API.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// StatusOf maps an error to the status a handler should answer with.
func StatusOf(err error) int {
	var ae *APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ae):
		return ae.Status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns what can be shown to the user for err.
func Message(err error) string {
	var ae *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae):
		return ae.Message
	case errors.Is(err, ErrNetwork):
		return "network error"
	default:
		return "internal error"
	}
}
