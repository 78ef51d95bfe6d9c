// Package sdk is the client library for an itemdeck daemon. It wraps the
// HTTP API in typed repositories and tracks the authentication session.
package sdk

import (
	"context"
	"errors"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

var (
	// ErrValidation is returned for empty or malformed fields, before any
	// request leaves the client.
	ErrValidation = errors.New("validation failed")
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials is returned when email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified is returned when signing in before email verification.
	ErrNotVerified = errors.New("email not verified")
	// ErrEmailTaken is returned when registering an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnauthorized is returned when no valid session backs a request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for stale references to deleted or foreign items.
	ErrNotFound = errors.New("not found")
	// ErrStore is returned for transport failures and server-side errors.
	ErrStore = errors.New("store error")
)

// Credentials is an issued session token together with its identity.
type Credentials struct {
	Token    string          `json:"token"`
	Identity schema.Identity `json:"identity"`
}

// AuthService is the authentication collaborator.
type AuthService interface {
	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (Credentials, error)
	// SignUp registers an account; the identity stays pending until the
	// emailed code is confirmed via Verify.
	SignUp(ctx context.Context, name, email, password, confirmPassword string) error
	// Verify finalizes a pending registration and returns its session.
	Verify(ctx context.Context, email, code string) (Credentials, error)
	// SignOut invalidates the current session server-side.
	SignOut(ctx context.Context) error
	// CurrentSession resolves the client's token to an identity.
	CurrentSession(ctx context.Context) (schema.Identity, error)
}

// TokenSetter is implemented by auth services that authenticate with a
// bearer token, so a restored session can re-arm them.
type TokenSetter interface {
	SetToken(token string)
}

// ItemRepository is the remote store collaborator, scoped to the session's
// owner by the daemon.
type ItemRepository interface {
	// List fetches the owner's items, newest first. Each call re-reads the
	// store; the result is never cached.
	List(ctx context.Context) ([]schema.Item, error)
	// Create stores a new item. An empty status defaults to pending.
	Create(ctx context.Context, title, description string, status schema.Status) (schema.Item, error)
	// Update replaces title, description and status of an existing item.
	Update(ctx context.Context, id, title, description string, status schema.Status) (schema.Item, error)
	// Delete removes an item. Deleting an already-deleted id fails with
	// ErrNotFound.
	Delete(ctx context.Context, id string) error
}
