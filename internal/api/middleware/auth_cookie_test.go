package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/auth"
	"github.com/web3events/server/internal/domain/sessions"
)

type sessionStub struct {
	err error
}

func (s sessionStub) Validate(ctx context.Context, token string) (*sessions.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sessions.Session{Token: token, IsActive: true}, nil
}

func identityEcho(t *testing.T, captured *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CallerIdentity(r)
		require.True(t, ok)
		*captured = identity
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthCookieAcceptsValidToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "web3events")
	token, err := manager.Generate("user-1", "0xAbC")
	require.NoError(t, err)

	var captured Identity
	handler := AuthCookie(manager, sessionStub{}, "test")(identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", captured.UserID)
	require.Equal(t, "0xAbC", captured.WalletAddress)
	require.Equal(t, token, captured.Token)
}

func TestAuthCookieMissing(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "web3events")
	handler := AuthCookie(manager, sessionStub{}, "test")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestAuthCookieBadSignature(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "web3events")
	other := auth.NewJWTManager("different-secret", time.Hour, "web3events")
	token, err := other.Generate("user-1", "0xAbC")
	require.NoError(t, err)

	handler := AuthCookie(manager, sessionStub{}, "test")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthCookieRejectsRetiredSession(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "web3events")
	token, err := manager.Generate("user-1", "0xAbC")
	require.NoError(t, err)

	handler := AuthCookie(manager, sessionStub{err: sessions.ErrExpired}, "test")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallerIdentityAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := CallerIdentity(req)

	require.False(t, ok)
}
