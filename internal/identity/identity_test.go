package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/mschirtzinger/learntrack/internal/localstore"
	"github.com/mschirtzinger/learntrack/internal/remote"
)

func setupStore(t *testing.T, autoConfirm bool) *Store {
	t.Helper()

	dir := t.TempDir()
	db, err := remote.Open(filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	session := localstore.New(filepath.Join(dir, "data"), log.New(io.Discard, "", 0))
	store, err := NewStore(db.RawDB(), session, Config{
		AutoConfirm: autoConfirm,
		Logger:      log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("failed to create identity store: %v", err)
	}
	return store
}

func TestSignUpSignInFlow(t *testing.T) {
	store := setupStore(t, true)
	ctx := context.Background()

	user, err := store.SignUp(ctx, "Pat@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Email != "pat@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if !user.Confirmed {
		t.Error("expected auto-confirmed account")
	}

	current, ok, err := store.Current(ctx)
	if err != nil || !ok {
		t.Fatalf("Current failed: ok=%v err=%v", ok, err)
	}
	if current.ID != user.ID {
		t.Errorf("session user mismatch: %s != %s", current.ID, user.ID)
	}

	if err := store.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if _, ok, _ := store.Current(ctx); ok {
		t.Error("expected no session after sign-out")
	}

	signedIn, err := store.SignIn(ctx, "pat@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("signed-in user mismatch: %s != %s", signedIn.ID, user.ID)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	store := setupStore(t, true)
	ctx := context.Background()

	if _, err := store.SignUp(ctx, "pat@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := store.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	_, err := store.SignIn(ctx, "pat@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, ok, _ := store.Current(ctx); ok {
		t.Error("failed sign-in must not record a session")
	}
}

func TestSignIn_UnknownEmail(t *testing.T) {
	store := setupStore(t, true)

	_, err := store.SignIn(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	store := setupStore(t, true)
	ctx := context.Background()

	if _, err := store.SignUp(ctx, "pat@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	_, err := store.SignUp(ctx, "pat@example.com", "differentpass1")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignUp_UnconfirmedIsNotSignedIn(t *testing.T) {
	store := setupStore(t, false)
	ctx := context.Background()

	user, err := store.SignUp(ctx, "pat@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Confirmed {
		t.Error("expected unconfirmed account")
	}
	if _, ok, _ := store.Current(ctx); ok {
		t.Error("unconfirmed sign-up must not record a session")
	}

	// Sign-in is refused until confirmation.
	if _, err := store.SignIn(ctx, "pat@example.com", "hunter2hunter2"); !errors.Is(err, ErrUnconfirmed) {
		t.Errorf("expected ErrUnconfirmed, got %v", err)
	}

	if err := store.Confirm(ctx, "pat@example.com"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if _, err := store.SignIn(ctx, "pat@example.com", "hunter2hunter2"); err != nil {
		t.Errorf("SignIn after confirm failed: %v", err)
	}
}

func TestConfirm_UnknownEmail(t *testing.T) {
	store := setupStore(t, false)

	if err := store.Confirm(context.Background(), "nobody@example.com"); err == nil {
		t.Error("expected an error confirming an unknown account")
	}
}

func TestSignOut_Idempotent(t *testing.T) {
	store := setupStore(t, true)
	ctx := context.Background()

	if err := store.SignOut(ctx); err != nil {
		t.Errorf("sign-out while signed out must be a no-op, got: %v", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	store := setupStore(t, true)
	ctx := context.Background()

	if _, err := store.SignUp(ctx, "", "hunter2hunter2"); err == nil {
		t.Error("expected error for empty email")
	}
	if _, err := store.SignUp(ctx, "pat@example.com", "short"); err == nil {
		t.Error("expected error for short password")
	}
}
