// Package session owns the dashboard's session lifecycle: the durable session
// store holding the backend bearer token, the signed cookie that references a
// stored session, and the manager that validates, rehydrates and destroys
// sessions.
package session

import (
	"errors"
	"time"
)

// User types reported by the backend
const (
	UserTypeDevice = "device"
	UserTypeAdmin  = "admin"
)

var (
	// ErrNotFound means no session exists for the given ID
	ErrNotFound = errors.New("session not found")

	// ErrInvalid means the session existed but failed validation and has been destroyed
	ErrInvalid = errors.New("session is no longer valid")
)

// Session is the in-memory authenticated session resolved for a request
type Session struct {
	ID                  string
	UserID              string
	UserType            string
	ForcePasswordChange bool
	Token               string
}

// IsAdmin reports whether the session belongs to an admin user
func (s *Session) IsAdmin() bool {
	return s.UserType == UserTypeAdmin
}

// Record is the durable mirror of a session. The four authoritative fields
// (token, user type, user ID, force-password-change) are always written and
// cleared together; Token is sealed before it reaches a store.
type Record struct {
	ID                  string
	UserID              string
	UserType            string
	ForcePasswordChange bool
	Token               []byte
	CreatedAt           time.Time
	ExpiresAt           time.Time
}
