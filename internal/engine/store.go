// Package engine implements the itemdeck storage engine: accounts, sessions
// and per-owner items held in memory and snapshotted to disk.
package engine

import (
	"errors"
	"time"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

var (
	// ErrNotFound is returned when an item id is unknown or owned by someone else.
	ErrNotFound = errors.New("item not found")
	// ErrUserNotFound is returned when no account exists for an email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadVerifyCode is returned when a verification code does not match.
	ErrBadVerifyCode = errors.New("invalid verification code")
	// ErrSessionNotFound is returned when a token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput is returned when a mutation carries empty or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the contract between the HTTP layer and the storage engine.
// Every item operation is scoped to an owner; ids belonging to a different
// owner behave exactly like unknown ids.
type Store interface {
	// CreateUser registers an unverified account. The caller supplies the
	// password hash and the verification code.
	CreateUser(name, email, passwordHash, verifyCode string) (schema.UserRecord, error)
	// UserByEmail looks up an account by email.
	UserByEmail(email string) (schema.UserRecord, error)
	// VerifyUser marks an account verified if the code matches.
	VerifyUser(email, code string) (schema.UserRecord, error)

	// PutSession records a token for a user.
	PutSession(token, userID string, expiresAt time.Time) error
	// SessionUser resolves a token to its account, rejecting expired tokens.
	SessionUser(token string) (schema.UserRecord, error)
	// DeleteSession invalidates a token. Unknown tokens are not an error.
	DeleteSession(token string) error

	// ListItems returns the owner's items ordered by CreatedAt descending.
	ListItems(ownerID string) ([]schema.Item, error)
	// CreateItem stores a new item, assigning its id and creation time.
	CreateItem(ownerID, title, description string, status schema.Status) (schema.Item, error)
	// UpdateItem replaces title, description and status of an owned item.
	UpdateItem(ownerID, id, title, description string, status schema.Status) (schema.Item, error)
	// DeleteItem removes an owned item. Deleting an already-deleted id
	// returns ErrNotFound.
	DeleteItem(ownerID, id string) error
}
