package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quickscan/backend/internal/apperr"
)

// Claims are the JWT claims issued for a user: the registered set plus the
// user's email for display purposes.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// IssueToken produces a signed HS256 credential bound to the user, expiring
// TokenTTL from now.
func (s *Store) IssueToken(u *User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: u.Email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return signed, expiresAt, nil
}

// Resolve validates the credential's signature and expiry and returns the
// bound user. This sits on the hot path of every file operation: the only
// work beyond the signature check is an in-memory lookup.
func (s *Store) Resolve(tokenString string) (*User, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.Auth, "invalid or expired token", err)
	}

	u, err := s.GetByID(claims.Subject)
	if err != nil {
		return nil, apperr.New(apperr.Auth, "token references unknown user")
	}
	if !u.Active {
		return nil, apperr.New(apperr.Auth, "account is inactive")
	}
	return u, nil
}
