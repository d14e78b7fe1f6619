// Package middleware provides reusable HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/quickscan/backend/internal/identity"
	"github.com/quickscan/backend/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// userKey is the context key for the authenticated user.
const userKey contextKey = "user"

// RequireAuth returns middleware that validates a Bearer token against the
// identity store and injects the resolved user into the request context.
func RequireAuth(store *identity.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Fail(w, http.StatusUnauthorized, "authentication_error",
					"authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Fail(w, http.StatusUnauthorized, "authentication_error",
					"invalid authorization header format")
				return
			}

			u, err := store.Resolve(parts[1])
			if err != nil {
				response.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom extracts the authenticated user from the request context.
func UserFrom(ctx context.Context) (*identity.User, bool) {
	u, ok := ctx.Value(userKey).(*identity.User)
	return u, ok
}
