package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/authcore-io/authcore/internal/auth"
	"github.com/authcore-io/authcore/internal/models"
	"github.com/google/uuid"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequestPayload struct {
	Email string `json:"email"`
}

type resetVerifyPayload struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RegisterHandler creates a new account and logs it in.
func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := auth.ValidateRegisterPayload(req.Username, req.Email, req.Password); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	// The password is hashed byte-for-byte as submitted; login verifies the
	// same raw payload, so the two can never disagree about whitespace.
	hash, err := api.hasher.Hash(req.Password)
	if err != nil {
		respondDependencyError(w, "register", err)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     auth.SanitizeInput(req.Username),
		Email:        strings.ToLower(auth.SanitizeInput(req.Email)),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := api.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "An account with this email address already exists")
			return
		}
		respondDependencyError(w, "register", err)
		return
	}

	token, err := api.tokens.Generate(user.ID, user.Email)
	if err != nil {
		respondDependencyError(w, "register", err)
		return
	}

	auth.SetAccessTokenCookie(w, token, api.secureCookies)
	respondMessage(w, http.StatusCreated, "User registered successfully")
}

// LoginHandler authenticates an account. Every attacker-reachable failure
// returns the same generic 401 body; only the lockout 429 is deliberately
// distinguishable.
func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := auth.ValidateLoginPayload(req.Email, req.Password); len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	email := strings.ToLower(auth.SanitizeInput(req.Email))

	user, err := api.users.GetByEmail(r.Context(), email)
	if errors.Is(err, auth.ErrUserNotFound) {
		// Same shape as a wrong password; existence must not leak.
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		respondDependencyError(w, "login", err)
		return
	}

	locked, err := api.guard.IsLocked(r.Context(), user.ID)
	if err != nil {
		respondDependencyError(w, "login", err)
		return
	}
	if locked {
		// Rejected before the password is even checked.
		respondError(w, http.StatusTooManyRequests, "Too many failed attempts, try again later")
		return
	}

	ok, err := api.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil && !errors.Is(err, auth.ErrInvalidDigest) {
		respondDependencyError(w, "login", err)
		return
	}
	if !ok {
		// A malformed stored digest lands here too, indistinguishable
		// from a wrong password.
		api.guard.RecordFailure(r.Context(), user.ID)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	api.guard.Reset(r.Context(), user.ID)

	token, err := api.tokens.Generate(user.ID, user.Email)
	if err != nil {
		respondDependencyError(w, "login", err)
		return
	}

	auth.SetAccessTokenCookie(w, token, api.secureCookies)
	respondMessage(w, http.StatusOK, "Logged in successfully")
}

// LogoutHandler clears the browser's copy of the token. The token itself
// stays valid until expiry; there is no server-side revocation.
func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	auth.ClearAccessTokenCookie(w, api.secureCookies)
	respondMessage(w, http.StatusOK, "Logged out")
}

// ResetRequestHandler issues an OTP ticket. The response body is identical
// for registered and unregistered emails.
func (api *Api) ResetRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req resetRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := api.reset.Request(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrResetRateLimited) {
			respondError(w, http.StatusTooManyRequests, "Too many reset requests, try again later")
			return
		}
		respondDependencyError(w, "reset request", err)
		return
	}

	respondMessage(w, http.StatusOK, "If this email is registered, a reset code has been sent.")
}

// ResetVerifyHandler consumes an OTP and replaces the account password.
func (api *Api) ResetVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if e := auth.ValidatePassword(req.NewPassword); e != nil {
		respondValidationErrors(w, auth.ValidationErrors{*e})
		return
	}

	err := api.reset.Verify(r.Context(), req.UserID, req.Email, req.OTP, req.NewPassword, req.ConfirmPassword)
	switch {
	case err == nil:
		respondMessage(w, http.StatusOK, "Password reset successful")
	case errors.Is(err, auth.ErrPasswordMismatch):
		respondError(w, http.StatusBadRequest, "Passwords do not match")
	case errors.Is(err, auth.ErrInvalidOTP):
		respondError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, auth.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "No user found")
	default:
		respondDependencyError(w, "reset verify", err)
	}
}

// MeHandler returns the identity of the gated request.
func (api *Api) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or missing token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
	})
}

// HealthHandler is the liveness probe.
func (api *Api) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Auth service is healthy"))
}
