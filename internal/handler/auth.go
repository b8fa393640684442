package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/auth"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/service"
)

// AuthHandler exposes sign-up, sign-in, sign-out, and the current-user probe.
//
// Sign-up and sign-in are public; sign-out and /me sit behind the auth gate.
// The bearer token travels in the Authorization header, never in the body.
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Expires time.Time   `json:"expiresAt"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleSignUp registers a new user.
//
// HTTP: POST /api/auth/sign-up
// Body: {"email": "...", "password": "...", "name": "..."}
//
// 201 with the created user (no credential material), 409 on duplicate email,
// 400 on validation failure.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid sign-up JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleSignIn authenticates and mints a session token.
//
// HTTP: POST /api/auth/sign-in
// Body: {"email": "...", "password": "..."}
//
// 200 with {user, token, expiresAt}; 401 invalid_credentials on any failure —
// the response is identical whether the email or the password was wrong.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid sign-in JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	// Advisory client metadata stored on the session.
	ip := r.RemoteAddr
	ua := r.UserAgent()
	var ipPtr, uaPtr *string
	if ip != "" {
		ipPtr = &ip
	}
	if ua != "" {
		uaPtr = &ua
	}

	result, err := h.authService.SignIn(r.Context(), req.Email, req.Password, ipPtr, uaPtr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{
		User:    result.User,
		Token:   result.Token,
		Expires: result.Session.ExpiresAt,
	})
}

// HandleSignOut deletes the caller's session.
//
// HTTP: POST /api/auth/sign-out
//
// Always 200 {"success": true} — a second sign-out with the same token, or a
// token that never existed, gets the same answer as a real one.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)

	if err := h.authService.SignOut(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/auth/me
//
// The user comes straight from the auth gate's context — the gate already
// did the fresh session + user read.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}
