package api

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBaseURL is returned by New when no base URL is given.
	ErrMissingBaseURL = errors.New("api: base URL is required")

	// ErrInvalidBaseURL is returned by New for URLs that are not http(s)
	// or have no host.
	ErrInvalidBaseURL = errors.New("api: invalid base URL")

	// ErrMissingAPIKey is returned by New when no API key is given.
	ErrMissingAPIKey = errors.New("api: API key is required")

	// ErrMissingFeedScope is returned by New when the user or feed channel
	// identifier is missing.
	ErrMissingFeedScope = errors.New("api: user and feed identifiers are required")

	// ErrUnauthorized wraps 401/403 responses.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrNotFound wraps 404 responses.
	ErrNotFound = errors.New("api: not found")
)

// Error is a decoded platform error response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}
