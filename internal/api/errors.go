// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import "fmt"

// APIError is a non-2xx response from the collaborator.
type APIError struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// Message is the server-supplied {"error"} text, empty when the body
	// was missing or unparsable.
	Message string
}

// Error returns the server message verbatim when present, otherwise a
// generic message carrying the status.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// TransportError is a failure to reach the collaborator at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
