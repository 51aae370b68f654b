package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/faceit-ledger/internal/api/apierr"
	"github.com/mcoot/faceit-ledger/internal/middleware"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Auth creates authentication middleware. The session's address becomes
// the sender of every call made by the request.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			middleware.SetCaller(r.Context(), session.Address.String())
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// GetAddress returns the authenticated address, or the zero address
func GetAddress(ctx context.Context) model.Address {
	if session := GetSession(ctx); session != nil {
		return session.Address
	}
	return ""
}

// MustGetAddress returns the authenticated address or panics
func MustGetAddress(ctx context.Context) model.Address {
	addr := GetAddress(ctx)
	if addr.IsZero() {
		panic("no address in context - auth middleware not applied?")
	}
	return addr
}
