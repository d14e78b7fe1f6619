// Package identity holds user records, verifies credentials, and issues and
// validates bearer tokens. All state lives in process memory: the user maps
// support concurrent reads with per-key writes, never a global lock.
package identity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickscan/backend/internal/apperr"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 128
)

// User is a registered account. The password hash never leaves the store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"is_active"`
}

// Store manages users and pre-shared demo credentials.
type Store struct {
	byEmail sync.Map // lowercased email -> *User
	byID    sync.Map // user id -> *User

	// preshared maps each allow-listed demo string to the id of its
	// synthetic user, materialized lazily on first use.
	allowList map[string]struct{}
	preshared sync.Map // demo string -> user id

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewStore creates a Store seeded with the demo-token allow-list.
func NewStore(secret string, tokenTTL time.Duration, demoTokens []string) *Store {
	allow := make(map[string]struct{}, len(demoTokens))
	for _, t := range demoTokens {
		allow[t] = struct{}{}
	}
	return &Store{
		allowList: allow,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates a new user after checking the password policy and email
// uniqueness. The returned user carries no hash in its JSON form.
func (s *Store) Register(email, password, confirmPassword string) (*User, error) {
	if password != confirmPassword {
		return nil, apperr.New(apperr.Validation, "passwords do not match")
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return nil, apperr.Newf(apperr.Validation,
			"password must be between %d and %d characters", passwordMinLen, passwordMaxLen)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		Active:       true,
	}

	// LoadOrStore makes concurrent registrations of the same email resolve
	// to exactly one winner.
	if _, loaded := s.byEmail.LoadOrStore(u.Email, u); loaded {
		return nil, apperr.New(apperr.Conflict, "email already registered")
	}
	s.byID.Store(u.ID, u)

	return u, nil
}

// Login verifies the email/password pair. Unknown email and bad password
// are indistinguishable to the caller.
func (s *Store) Login(email, password string) (*User, error) {
	v, ok := s.byEmail.Load(strings.ToLower(email))
	if !ok {
		return nil, apperr.New(apperr.Auth, "invalid credentials")
	}
	u := v.(*User)

	if !verifyPassword(u.PasswordHash, password) {
		return nil, apperr.New(apperr.Auth, "invalid credentials")
	}
	if !u.Active {
		return nil, apperr.New(apperr.Auth, "account is inactive")
	}
	return u, nil
}

// LoginWithToken authenticates a pre-shared demo string. The synthetic user
// bound to the string is created on first use and reused afterwards, so
// repeat logins resolve to one identity.
func (s *Store) LoginWithToken(preshared string) (*User, error) {
	if _, ok := s.allowList[preshared]; !ok {
		return nil, apperr.New(apperr.Auth, "invalid API token")
	}

	if v, ok := s.preshared.Load(preshared); ok {
		if u, err := s.GetByID(v.(string)); err == nil {
			return u, nil
		}
	}

	u := &User{
		ID:        uuid.NewString(),
		Email:     fmt.Sprintf("token-user-%s@quickscan.app", uuid.NewString()[:8]),
		CreatedAt: s.now().UTC(),
		Active:    true,
	}

	// Make the candidate resolvable before racing for the preshared slot,
	// so whichever id wins the slot is already in the lookup maps.
	s.byID.Store(u.ID, u)
	s.byEmail.Store(u.Email, u)

	if prev, loaded := s.preshared.LoadOrStore(preshared, u.ID); loaded {
		s.byID.Delete(u.ID)
		s.byEmail.Delete(u.Email)
		return s.GetByID(prev.(string))
	}

	return u, nil
}

// GetByID returns the user with the given id.
func (s *Store) GetByID(id string) (*User, error) {
	v, ok := s.byID.Load(id)
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return v.(*User), nil
}
