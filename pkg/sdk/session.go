package sdk

import (
	"context"
	"errors"
	"sync"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

// State is the client-side authentication state.
type State int

const (
	// StateUnresolved is the startup state, before the persisted session
	// (if any) has been checked against the daemon.
	StateUnresolved State = iota
	StateUnauthenticated
	// StatePendingVerification follows a sign-up, until the emailed code is
	// confirmed.
	StatePendingVerification
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePendingVerification:
		return "pending-verification"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// SessionSnapshot is what subscribers receive on every transition.
type SessionSnapshot struct {
	State        State
	Identity     schema.Identity
	PendingEmail string
	Loading      bool
}

// Session tracks the authenticated identity and drives the auth lifecycle:
//
//	Unresolved → {Authenticated, Unauthenticated}        (Resolve)
//	Unauthenticated → PendingVerification → Authenticated (SignUp, Confirm)
//	Authenticated → Unauthenticated                       (SignOut)
//
// Dependents subscribe to be told about every transition. Safe for
// concurrent use.
type Session struct {
	auth  AuthService
	creds CredentialStore

	mu           sync.Mutex
	state        State
	identity     schema.Identity
	pendingEmail string
	loading      bool
	nextSubID    int
	subs         map[int]func(SessionSnapshot)
}

// NewSession builds a session store around an auth service and a credential
// store. The session starts Unresolved; call Resolve before rendering
// anything that depends on it.
func NewSession(auth AuthService, creds CredentialStore) *Session {
	return &Session{
		auth:  auth,
		creds: creds,
		state: StateUnresolved,
		subs:  make(map[int]func(SessionSnapshot)),
	}
}

// Resolve restores a persisted session if one exists. It always leaves the
// session in a resolved state, even on error.
func (s *Session) Resolve(ctx context.Context) error {
	s.setLoading(true)

	stored, ok, err := s.creds.Load()
	if err != nil || !ok {
		s.transition(StateUnauthenticated, schema.Identity{}, "")
		return err
	}

	if setter, okSet := s.auth.(TokenSetter); okSet {
		setter.SetToken(stored.Token)
	}
	identity, err := s.auth.CurrentSession(ctx)
	if err != nil {
		// Stale token: drop it and land unauthenticated.
		_ = s.creds.Clear()
		s.transition(StateUnauthenticated, schema.Identity{}, "")
		if errors.Is(err, ErrUnauthorized) {
			return nil
		}
		return err
	}
	s.transition(StateAuthenticated, identity, "")
	return nil
}

// SignIn authenticates and persists the session on success.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)
	creds, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return err
	}
	if err := s.creds.Save(creds); err != nil {
		s.setLoading(false)
		return err
	}
	s.transition(StateAuthenticated, creds.Identity, "")
	return nil
}

// SignUp registers an account and moves to PendingVerification. The identity
// is only finalized once ConfirmVerification succeeds.
func (s *Session) SignUp(ctx context.Context, name, email, password, confirmPassword string) error {
	s.setLoading(true)
	if err := s.auth.SignUp(ctx, name, email, password, confirmPassword); err != nil {
		s.setLoading(false)
		return err
	}
	s.transition(StatePendingVerification, schema.Identity{}, email)
	return nil
}

// ConfirmVerification completes the sign-up path with the emailed code.
func (s *Session) ConfirmVerification(ctx context.Context, code string) error {
	s.mu.Lock()
	email := s.pendingEmail
	s.mu.Unlock()
	if email == "" {
		return ErrValidation
	}

	s.setLoading(true)
	creds, err := s.auth.Verify(ctx, email, code)
	if err != nil {
		s.setLoading(false)
		return err
	}
	if err := s.creds.Save(creds); err != nil {
		s.setLoading(false)
		return err
	}
	s.transition(StateAuthenticated, creds.Identity, "")
	return nil
}

// SignOut clears the session locally regardless of whether the server call
// succeeds; dependents must treat the result as an unauthenticated
// transition either way.
func (s *Session) SignOut(ctx context.Context) error {
	s.setLoading(true)
	err := s.auth.SignOut(ctx)
	_ = s.creds.Clear()
	s.transition(StateUnauthenticated, schema.Identity{}, "")
	return err
}

// CurrentIdentity returns the identity and whether one is present.
func (s *Session) CurrentIdentity() (schema.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state == StateAuthenticated
}

// IsLoading reports whether the session is unresolved or mid-transition.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || s.state == StateUnresolved
}

// Snapshot returns the current state for rendering decisions.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener for transitions and returns an
// unsubscribe function.
func (s *Session) Subscribe(fn func(SessionSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Dispose drops all subscribers. Call on app teardown.
func (s *Session) Dispose() {
	s.mu.Lock()
	s.subs = make(map[int]func(SessionSnapshot))
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	return SessionSnapshot{
		State:        s.state,
		Identity:     s.identity,
		PendingEmail: s.pendingEmail,
		Loading:      s.loading || s.state == StateUnresolved,
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	snap := s.snapshotLocked()
	subs := s.copySubs()
	s.mu.Unlock()
	notify(subs, snap)
}

func (s *Session) transition(state State, identity schema.Identity, pendingEmail string) {
	s.mu.Lock()
	s.state = state
	s.identity = identity
	s.pendingEmail = pendingEmail
	s.loading = false
	snap := s.snapshotLocked()
	subs := s.copySubs()
	s.mu.Unlock()
	notify(subs, snap)
}

// copySubs MUST be called while holding s.mu; listeners run without the lock.
func (s *Session) copySubs() []func(SessionSnapshot) {
	out := make([]func(SessionSnapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(SessionSnapshot), snap SessionSnapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
