package server

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed   = errors.New("server: session closed")
	ErrSessionNotFound = errors.New("server: session not found")
	// ErrHandlerNotFound means an event named an HID the last render did
	// not register, usually because the page is stale.
	ErrHandlerNotFound = errors.New("server: handler not found")
	ErrNotMounted      = errors.New("server: session not mounted")
)

// SessionError records which session operation failed. Match the cause
// with errors.Is against the sentinels above.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
