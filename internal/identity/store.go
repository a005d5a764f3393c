package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mschirtzinger/learntrack/internal/localstore"
)

// Store implements Provider on top of the shared store database, with
// the current session persisted as a local document.
type Store struct {
	conn    *sql.DB
	session *localstore.Store
	logger  *log.Logger

	// autoConfirm marks new accounts confirmed immediately. The hosted
	// deployment leaves this off and confirms accounts out of band.
	autoConfirm bool
}

// Config holds options for the identity store.
type Config struct {
	// AutoConfirm marks new sign-ups confirmed immediately (dev mode).
	AutoConfirm bool

	// Logger for identity activity. If nil, a default stderr logger is used.
	Logger *log.Logger
}

// NewStore creates an identity provider backed by conn, recording the
// device session in session. The accounts table is created on demand.
func NewStore(conn *sql.DB, session *localstore.Store, config Config) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("conn cannot be nil")
	}
	if session == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[identity] ", log.LstdFlags)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		confirmed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	`
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize accounts schema: %w", err)
	}

	return &Store{
		conn:        conn,
		session:     session,
		logger:      config.Logger,
		autoConfirm: config.AutoConfirm,
	}, nil
}

// Current implements Provider.Current from the local session document.
func (s *Store) Current(ctx context.Context) (User, bool, error) {
	var user User
	ok, err := s.session.Load(localstore.KeySession, &user)
	if err != nil {
		return User{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || user.ID == "" {
		return User{}, false, nil
	}
	return user, true, nil
}

// SignIn implements Provider.SignIn.
func (s *Store) SignIn(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("email and password are required")
	}

	var user User
	var hash string
	var confirmed int
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, confirmed FROM accounts WHERE email = ?`, email)
	if err := row.Scan(&user.ID, &user.Email, &hash, &confirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if confirmed == 0 {
		return User{}, ErrUnconfirmed
	}
	user.Confirmed = true

	if err := s.session.Save(localstore.KeySession, user); err != nil {
		return User{}, fmt.Errorf("failed to record session: %w", err)
	}

	s.logger.Printf("Signed in: %s", user.Email)
	return user, nil
}

// SignUp implements Provider.SignUp.
func (s *Store) SignUp(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("email and password are required")
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:        newID(),
		Email:     email,
		Confirmed: s.autoConfirm,
	}

	confirmed := 0
	if user.Confirmed {
		confirmed = 1
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, confirmed, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, string(hash), confirmed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to create account: %w", err)
	}

	if !user.Confirmed {
		// Registered but not signed in: no session until confirmation.
		s.logger.Printf("Registered (unconfirmed): %s", user.Email)
		return user, nil
	}

	if err := s.session.Save(localstore.KeySession, user); err != nil {
		return User{}, fmt.Errorf("failed to record session: %w", err)
	}

	s.logger.Printf("Registered and signed in: %s", user.Email)
	return user, nil
}

// SignOut implements Provider.SignOut.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.session.Delete(localstore.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Println("Signed out")
	return nil
}

// Confirm marks an account confirmed. The hosted deployment drives this
// from its confirmation flow; self-hosted stores use the confirm
// command instead.
func (s *Store) Confirm(ctx context.Context, email string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE accounts SET confirmed = 1 WHERE email = ?`, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to confirm account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no account for %s", email)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newID returns a random 16-byte hex identifier.
func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to a time-based id rather than aborting account creation.
		return fmt.Sprintf("u-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
