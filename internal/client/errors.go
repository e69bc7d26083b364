package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("portal rejected credentials")
	// ErrTokenExpired is returned when the session token is past its exp claim.
	ErrTokenExpired = errors.New("session token expired")
	// ErrUnreachable wraps transport failures.
	ErrUnreachable = errors.New("portal unreachable")
	// ErrInvalidRequest is returned before any network call when a request
	// fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid portal response")
)

// APIError is a non-success answer from the portal. Message is the
// server's `message` (or `detail`) field, or the raw body when neither is
// present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portal returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("portal returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}
