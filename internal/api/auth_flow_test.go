package api

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Address   string  `json:"address"`
	Message   string  `json:"message"`
	Signature string  `json:"signature"`
	Username  *string `json:"username,omitempty"`
}

func signLogin(t *testing.T, key *ecdsa.PrivateKey, nonce string) loginPayload {
	t.Helper()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	message := fmt.Sprintf(
		"events.example wants you to sign in with your Ethereum account:\n%s\n\nSign in to the events directory.\n\nNonce: %s",
		address, nonce,
	)

	prefixed := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message)) + message
	sig, err := crypto.Sign(crypto.Keccak256([]byte(prefixed)), key)
	require.NoError(t, err)
	sig[64] += 27 // wallet-style recovery id

	return loginPayload{
		Address:   address,
		Message:   message,
		Signature: "0x" + hex.EncodeToString(sig),
	}
}

func fetchNonce(t *testing.T, env *testEnv) (string, *http.Cookie) {
	t.Helper()
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/nonce", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Nonce string `json:"nonce"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Nonce, 32)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "siwe_nonce" {
			require.True(t, cookie.HttpOnly)
			require.Equal(t, body.Nonce, cookie.Value)
			return body.Nonce, cookie
		}
	}
	t.Fatal("nonce cookie not set")
	return "", nil
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	nonce, nonceCookie := fetchNonce(t, env)
	payload := signLogin(t, key, nonce)
	payload.Username = strPtr("alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload))
	req.AddCookie(nonceCookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		User struct {
			ID            string  `json:"id"`
			WalletAddress string  `json:"wallet_address"`
			Username      *string `json:"username"`
			IsAdmin       bool    `json:"is_admin"`
		} `json:"user"`
		ExpiresAt string `json:"expires_at"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.User.ID)
	require.Equal(t, "alice", *login.User.Username)
	require.False(t, login.User.IsAdmin)
	require.NotEmpty(t, login.ExpiresAt)

	var authCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		switch cookie.Name {
		case "auth_token":
			authCookie = cookie
		case "siwe_nonce":
			require.Less(t, cookie.MaxAge, 0, "nonce cookie is single-use")
		}
	}
	require.NotNil(t, authCookie)
	require.True(t, authCookie.HttpOnly)
	require.NotEmpty(t, authCookie.Value)

	// The cookie authenticates /me.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(authCookie)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		WalletAddress string `json:"wallet_address"`
	}
	decodeBody(t, rec, &me)
	require.Equal(t, me.WalletAddress, login.User.WalletAddress)

	// Logout retires the session; the cookie stops working.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(authCookie)
	rec = env.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(authCookie)
	rec = env.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginStoresChecksummedAddress(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	nonce, nonceCookie := fetchNonce(t, env)
	payload := signLogin(t, key, nonce)
	checksummed := payload.Address

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload))
	req.AddCookie(nonceCookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		User struct {
			WalletAddress string `json:"wallet_address"`
		} `json:"user"`
	}
	decodeBody(t, rec, &login)
	require.Equal(t, checksummed, login.User.WalletAddress)
}

func TestLoginSecondTimeReusesUser(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	ids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		nonce, nonceCookie := fetchNonce(t, env)
		payload := signLogin(t, key, nonce)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload))
		req.AddCookie(nonceCookie)
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		var login struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		decodeBody(t, rec, &login)
		ids = append(ids, login.User.ID)
	}
	require.Equal(t, ids[0], ids[1], "same wallet maps to the same user")
}

func TestLoginWithoutNonceCookie(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	nonce, _ := fetchNonce(t, env)
	payload := signLogin(t, key, nonce)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginWithWrongNonce(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, nonceCookie := fetchNonce(t, env)
	payload := signLogin(t, key, "somebodyelsesnonce")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload))
	req.AddCookie(nonceCookie)
	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "validation-error")
}

func TestLoginWithTamperedAddress(t *testing.T) {
	env := newTestEnv(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	nonce, nonceCookie := fetchNonce(t, env)
	payload := signLogin(t, key, nonce)
	payload.Address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, payload))
	req.AddCookie(nonceCookie)
	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "validation-error")
}

func TestMeRequiresCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestMeRejectsForgedToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "not-a-jwt"})
	rec := env.do(req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0xAbC0000000000000000000000000000000000001", false)
	cookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/auth/profile", jsonBody(t, map[string]any{
		"username":         "bob",
		"analytics_opt_in": true,
	}))
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Username       *string `json:"username"`
		AnalyticsOptIn *bool   `json:"analytics_opt_in"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, "bob", *body.Username)
	require.True(t, *body.AnalyticsOptIn)
}

func TestBootstrapAdminFirstCallerWins(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedUser(t, "0x01", false)
	second := env.seedUser(t, "0x02", false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/bootstrap-admin", nil)
	req.AddCookie(env.authCookie(t, first))
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		IsAdmin bool `json:"is_admin"`
	}
	decodeBody(t, rec, &body)
	require.True(t, body.IsAdmin)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/bootstrap-admin", nil)
	req.AddCookie(env.authCookie(t, second))
	rec = env.do(req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSecondLoginDisplacesFirstSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "0x01", false)

	firstCookie := env.authCookie(t, user)
	secondCookie := env.authCookie(t, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(firstCookie)
	rec := env.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code, "displaced session is rejected")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(secondCookie)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func strPtr(s string) *string { return &s }
