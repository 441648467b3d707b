package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/web3events/server/internal/api/middleware"
	"github.com/web3events/server/internal/api/problem"
	"github.com/web3events/server/internal/auth"
	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/metrics"
)

type AuthHandler struct {
	Users    *users.Service
	Sessions *sessions.Service
	JWT      *auth.JWTManager
	Verifier auth.CredentialVerifier
	Env      string
}

func NewAuthHandler(userSvc *users.Service, sessionSvc *sessions.Service, jwtManager *auth.JWTManager, verifier auth.CredentialVerifier, env string) *AuthHandler {
	return &AuthHandler{
		Users:    userSvc,
		Sessions: sessionSvc,
		JWT:      jwtManager,
		Verifier: verifier,
		Env:      env,
	}
}

func (h *AuthHandler) secureCookies() bool {
	return h.Env == "production"
}

type userResponse struct {
	ID                string             `json:"id"`
	WalletAddress     string             `json:"wallet_address"`
	Username          *string            `json:"username,omitempty"`
	ProfilePictureURL *string            `json:"profile_picture_url,omitempty"`
	IsAdmin           bool               `json:"is_admin"`
	Permissions       *users.Permissions `json:"permissions,omitempty"`
	AnalyticsOptIn    *bool              `json:"analytics_opt_in,omitempty"`
	AppVersion        *string            `json:"app_version,omitempty"`
	DeviceOS          *string            `json:"device_os,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func toUserResponse(user users.User) userResponse {
	return userResponse{
		ID:                user.ID,
		WalletAddress:     user.WalletAddress,
		Username:          user.Username,
		ProfilePictureURL: user.ProfilePictureURL,
		IsAdmin:           user.IsAdmin,
		Permissions:       user.Permissions,
		AnalyticsOptIn:    user.AnalyticsOptIn,
		AppVersion:        user.AppVersion,
		DeviceOS:          user.DeviceOS,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

// Nonce issues a fresh SIWE nonce. The nonce travels back in a short-lived
// HttpOnly cookie and must reappear inside the signed login message.
func (h *AuthHandler) Nonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := auth.NewNonce()
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.NonceCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
}

type loginRequest struct {
	Address           string             `json:"address"`
	Message           string             `json:"message"`
	Signature         string             `json:"signature"`
	Username          *string            `json:"username,omitempty"`
	ProfilePictureURL *string            `json:"profile_picture_url,omitempty"`
	Permissions       *users.Permissions `json:"permissions,omitempty"`
	AnalyticsOptIn    *bool              `json:"analytics_opt_in,omitempty"`
	AppVersion        *string            `json:"app_version,omitempty"`
	DeviceOS          *string            `json:"device_os,omitempty"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login verifies a signed SIWE message against the nonce cookie, upserts the
// wallet's user row, and starts a session delivered as an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}

	nonceCookie, err := r.Cookie(auth.NonceCookieName)
	if err != nil || nonceCookie.Value == "" {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Missing nonce", problem.ErrUnauthorized, h.Env)
		return
	}

	payload := auth.SignedMessage{
		Address:   req.Address,
		Message:   req.Message,
		Signature: req.Signature,
	}
	if err := h.Verifier.Verify(payload, nonceCookie.Value); err != nil {
		// A present nonce with a bad signature or mismatched nonce is a
		// malformed credential, not a missing one.
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Signature verification failed", err, h.Env)
		return
	}

	wallet, err := auth.ChecksumAddress(req.Address)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid wallet address", err, h.Env)
		return
	}

	user, err := h.Users.UpsertByWallet(r.Context(), users.UpsertParams{
		WalletAddress:     wallet,
		Username:          req.Username,
		ProfilePictureURL: req.ProfilePictureURL,
		Permissions:       req.Permissions,
		AnalyticsOptIn:    req.AnalyticsOptIn,
		AppVersion:        req.AppVersion,
		DeviceOS:          req.DeviceOS,
	})
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	token, err := h.JWT.Generate(user.ID, user.WalletAddress)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	session, err := h.Sessions.Begin(r.Context(), user.ID, token)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	// The nonce is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.NonceCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.JWT.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	metrics.Logins.Inc()

	writeJSON(w, http.StatusOK, loginResponse{
		User:      toUserResponse(*user),
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the session and clears the cookie. Safe to call repeatedly.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.AuthCookieName); err == nil && cookie.Value != "" {
		if err := h.Sessions.End(r.Context(), cookie.Value); err != nil {
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "User not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

type profileRequest struct {
	Username          *string            `json:"username,omitempty"`
	ProfilePictureURL *string            `json:"profile_picture_url,omitempty"`
	Permissions       *users.Permissions `json:"permissions,omitempty"`
	AnalyticsOptIn    *bool              `json:"analytics_opt_in,omitempty"`
	AppVersion        *string            `json:"app_version,omitempty"`
	DeviceOS          *string            `json:"device_os,omitempty"`
}

// UpdateProfile patches the caller's own profile fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request body", err, h.Env)
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), identity.UserID, users.ProfileUpdate{
		Username:          req.Username,
		ProfilePictureURL: req.ProfilePictureURL,
		Permissions:       req.Permissions,
		AnalyticsOptIn:    req.AnalyticsOptIn,
		AppVersion:        req.AppVersion,
		DeviceOS:          req.DeviceOS,
	})
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "User not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// BootstrapAdmin promotes the caller to admin when no admin exists yet.
func (h *AuthHandler) BootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CallerIdentity(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuthenticationRequired, "Authentication required", problem.ErrUnauthorized, h.Env)
		return
	}

	if err := h.Users.BootstrapFirstAdmin(r.Context(), identity.UserID); err != nil {
		switch {
		case errors.Is(err, users.ErrAdminExists):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Admin already exists", err, h.Env)
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "User not found", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}
