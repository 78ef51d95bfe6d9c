// Package schema defines the data structures shared by the itemdeck daemon
// and its clients.
package schema

import "time"

// Status is the lifecycle state of an Item.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// Item is a single record owned by exactly one identity. ID, CreatedAt and
// OwnerID are assigned by the store and never change afterwards.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     string    `json:"owner_id"`
}

// Identity is the authenticated user's stable reference.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserRecord is the server-side representation of an account.
// The password hash and verification code never leave the daemon.
type UserRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Verified     bool      `json:"verified"`
	VerifyCode   string    `json:"verify_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity projects the public part of a user record.
func (u UserRecord) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// SessionRecord maps an opaque token to a user until it expires.
type SessionRecord struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s SessionRecord) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
