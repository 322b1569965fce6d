package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kodbank/kodbank/internal/domain"
)

// SessionResolver maps a bearer token to an account ID.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// ContextKey is the type for context keys.
type ContextKey string

// AccountIDContextKey is the context key for the authenticated account ID.
const AccountIDContextKey ContextKey = "account_id"

// SessionCookieName is the cookie the browser client stores the token in.
const SessionCookieName = "token"

// Auth creates a middleware that requires a live session. The token is read
// from the Authorization header or, failing that, the session cookie.
func Auth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			accountID, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				message := "invalid or expired session"
				if errors.Is(err, domain.ErrSessionExpired) {
					message = "session expired"
				}
				http.Error(w, message, status)

				return
			}

			ctx := context.WithValue(r.Context(), AccountIDContextKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken pulls the bearer token from a request. Returns "" when the
// request carries no credentials.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}

		return ""
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}

// AccountIDFromContext extracts the authenticated account ID from context.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(AccountIDContextKey).(string)
	return accountID, ok
}
