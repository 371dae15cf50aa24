package spa

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when no user is signed in.
	ErrNotAuthenticated = errors.New("spa: not authenticated")

	// ErrInvalidState is returned by HandleRedirectCallback when the
	// state parameter does not match a pending login.
	ErrInvalidState = errors.New("spa: invalid or expired state")

	// ErrMissingDomain is returned by Options.Validate.
	ErrMissingDomain = errors.New("spa: domain is required")

	// ErrMissingClientID is returned by Options.Validate.
	ErrMissingClientID = errors.New("spa: client ID is required")

	// ErrNoNavigator is returned by redirect flows when nothing can
	// navigate the browser.
	ErrNoNavigator = errors.New("spa: no navigator configured")

	// ErrSessionChanged is returned when the user signed in or out while
	// a token was being fetched. The fetched token is discarded.
	ErrSessionChanged = errors.New("spa: session changed during token fetch")
)

// APIError is a non-2xx response from the Saascannon API or the
// authorization server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("spa: api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("spa: api error %d: %s", e.Status, e.Message)
}
