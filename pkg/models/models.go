// Package models holds the entities exchanged with the remote note service.
package models

import (
	"strings"
	"time"
)

// User identifies an account on the remote auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated identity, valid until sign-out or invalidation.
// Token is the bearer token presented on every data request.
type Session struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Expired reports whether the session's token lifetime has elapsed.
// A zero ExpiresAt means the server did not communicate one.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Note is a single text note owned by exactly one user. ID and OwnerID are
// assigned by the remote store and never change; UpdatedAt equals CreatedAt
// on creation and increases on every successful update.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidTitle reports whether a title passes the client-side rule applied
// before any create or update is dispatched.
func ValidTitle(title string) bool {
	return strings.TrimSpace(title) != ""
}
