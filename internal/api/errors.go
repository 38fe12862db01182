package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated signals that the server rejected or lacks a session.
var ErrUnauthenticated = errors.New("not authenticated")

// TransportError wraps a failure to reach the API at all (DNS, connect,
// timeout). The displayed list state must be left unchanged when one occurs.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application-level failure: a non-2xx status, or a 2xx
// response whose message does not match the expected success string.
type APIError struct {
	Status  int    // HTTP status code (0 when the status was 2xx but the message mismatched)
	Message string // Server-supplied message when present, else a generic fallback
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// UserMessage returns the text to surface in a toast: the server's message
// when one was supplied, else a generic fallback.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "The request could not be completed"
}

// UserMessage extracts the toast text for any client error.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "The request could not be completed"
}
