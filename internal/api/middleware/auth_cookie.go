package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/web3events/server/internal/api/problem"
	"github.com/web3events/server/internal/auth"
	"github.com/web3events/server/internal/domain/sessions"
)

// AuthCookieName carries the session JWT issued at login.
const AuthCookieName = "auth_token"

type contextKeyAuth string

const identityKey contextKeyAuth = "identity"

// Identity is the authenticated caller extracted from the session cookie.
type Identity struct {
	UserID        string
	WalletAddress string
	Token         string
}

// SessionValidator reports whether a token still maps to a live session row.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*sessions.Session, error)
}

// AuthCookie validates the session cookie and stashes the caller identity in
// the request context. The JWT is checked first; the session row check catches
// tokens displaced by a newer login or retired by the sweep.
func AuthCookie(manager *auth.JWTManager, sessionSvc SessionValidator, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, env)
				return
			}

			claims, err := manager.Validate(cookie.Value)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Invalid session token", err, env)
				return
			}

			if sessionSvc != nil {
				if _, err := sessionSvc.Validate(r.Context(), cookie.Value); err != nil {
					problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Session no longer active", err, env)
					return
				}
			}

			identity := Identity{
				UserID:        claims.Subject,
				WalletAddress: claims.WalletAddress,
				Token:         cookie.Value,
			}
			next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), identity)))
		})
	}
}

func contextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// CallerIdentity returns the identity stashed by AuthCookie, if any.
func CallerIdentity(r *http.Request) (Identity, bool) {
	if r == nil {
		return Identity{}, false
	}
	identity, ok := r.Context().Value(identityKey).(Identity)
	return identity, ok
}
