// Package identity provides the account collaborator: who is currently
// signed in on this device, and the sign-in / sign-up / sign-out flows.
//
// The provider keeps account rows next to the remote store's tables and
// records the current session as a local document, so "who am I" never
// needs the network. Sign-up can leave an account in a registered but
// unconfirmed state; callers must treat that differently from a
// completed sign-in.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair
	// does not match an account.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotSignedIn is returned by operations requiring a session when
	// no one is signed in on this device.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrEmailTaken is returned by SignUp when the email is already
	// registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnconfirmed is returned by SignIn for accounts that registered
	// but were never confirmed.
	ErrUnconfirmed = errors.New("account not confirmed")
)

// User identifies an authenticated (or registered) account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// Confirmed is false for accounts that registered but have not
	// completed confirmation. An unconfirmed account is not signed in.
	Confirmed bool `json:"confirmed"`
}

// Provider is the identity collaborator contract the rest of the
// application depends on.
type Provider interface {
	// Current returns the signed-in user, or ok=false when nobody is
	// signed in on this device.
	Current(ctx context.Context) (user User, ok bool, err error)

	// SignIn authenticates the email/password pair and records the
	// session. Failures are surfaced, never silently retried.
	SignIn(ctx context.Context, email, password string) (User, error)

	// SignUp registers a new account. The returned user may be
	// unconfirmed, in which case no session is recorded and the caller
	// must report "registered, pending confirmation" rather than
	// "signed in".
	SignUp(ctx context.Context, email, password string) (User, error)

	// SignOut clears the session on this device. Signing out while
	// signed out is a no-op.
	SignOut(ctx context.Context) error
}
