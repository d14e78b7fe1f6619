package identity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickscan/backend/internal/apperr"
)

func newTestStore() *Store {
	return NewStore("test-secret", 24*time.Hour, []string{"demo-token-12345"})
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestStore()

	u, err := s.Register("User@Example.com", "password123", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", u.Email)
	assert.True(t, u.Active)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "password123", u.PasswordHash)

	got, err := s.Login("user@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Email lookup is case-insensitive.
	got, err = s.Login("USER@EXAMPLE.COM", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestStore()

	_, err := s.Register("a@b.com", "password123", "different456")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = s.Register("a@b.com", "short", "short")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.Register("a@b.com", string(long), string(long))
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestRegisterConflict(t *testing.T) {
	s := newTestStore()

	_, err := s.Register("dup@example.com", "password123", "password123")
	require.NoError(t, err)

	_, err = s.Register("DUP@example.com", "password456", "password456")
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestLoginFailures(t *testing.T) {
	s := newTestStore()

	_, err := s.Login("nobody@example.com", "password123")
	assert.True(t, apperr.IsKind(err, apperr.Auth))

	_, err = s.Register("known@example.com", "password123", "password123")
	require.NoError(t, err)

	_, err = s.Login("known@example.com", "wrongpassword")
	assert.True(t, apperr.IsKind(err, apperr.Auth))
}

func TestLoginWithToken(t *testing.T) {
	s := newTestStore()

	_, err := s.LoginWithToken("not-on-the-list")
	assert.True(t, apperr.IsKind(err, apperr.Auth))

	u1, err := s.LoginWithToken("demo-token-12345")
	require.NoError(t, err)
	assert.True(t, u1.Active)

	// Repeat logins reuse the lazily materialized user.
	u2, err := s.LoginWithToken("demo-token-12345")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestLoginWithTokenConcurrent(t *testing.T) {
	s := newTestStore()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.LoginWithToken("demo-token-12345")
			require.NoError(t, err)
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestConcurrentRegistrations(t *testing.T) {
	s := newTestStore()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register("race@example.com", "password123", "password123")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, apperr.IsKind(err, apperr.Conflict))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDistinctEmailsRegisterIndependently(t *testing.T) {
	s := newTestStore()

	for i := 0; i < 5; i++ {
		_, err := s.Register(fmt.Sprintf("u%d@example.com", i), "password123", "password123")
		require.NoError(t, err)
	}
}
