package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/taskvault/internal/model"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write the
// authenticated user in a request context — no string-key collisions.
type contextKey string

const userKey contextKey = "user"

// SessionValidator resolves a bearer token to its user.
//
// The concrete implementation is service.AuthService.Validate: a fresh
// session + user read on every request. (nil, nil) means "no valid session" —
// missing token, unknown token, expired session, or deleted user, all
// indistinguishable to the caller.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth is the authorization gate for owner-scoped routes.
//
// It extracts the bearer token from the Authorization header, resolves it to
// a user, and stores the user in the request context. If no valid session
// exists the request stops here with 401 — handlers behind this middleware
// can assume UserFromContext succeeds, and they take the owner ID from the
// context only. Callers never supply an owner ID themselves.
func RequireAuth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)

			user, err := sessions.Validate(r.Context(), token)
			if err != nil || user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// ContextWithUser returns a context carrying the authenticated user, exactly
// as RequireAuth stores it. Handler tests use this to stand in for the gate.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user stored by RequireAuth.
// Returns (nil, false) when the request did not pass through the gate.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when the header is absent or not a bearer scheme —
// the empty token then fails validation like any other invalid token.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
