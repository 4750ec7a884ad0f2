package handler

import (
	"encoding/json"
	"net/http"

	"gamestore-api/internal/middleware"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/apierror"
	"gamestore-api/pkg/logger"
	"gamestore-api/pkg/response"
)

// Flash messages shown on the next page load.
const (
	RegisteredMessage = "Registration successful! Please log in."
	LoggedOutMessage  = "You have been logged out."
)

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	accounts *service.AccountService
	sessions *service.SessionService
	log      *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts *service.AccountService, sessions *service.SessionService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		log:      log,
	}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	id, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	if sess := middleware.GetSession(r.Context()); sess != nil {
		if err := h.sessions.SetFlash(r.Context(), sess, RegisteredMessage); err != nil {
			h.log.Warn("failed to set flash", "error", err)
		}
	}

	response.Created(w, id)
}

// Login handles POST /api/v1/auth/login
// The session token is rotated on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	id, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	sess, err := h.sessions.Start(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.sessions.Login(r.Context(), sess, id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	if old := middleware.GetSession(r.Context()); old != nil {
		if err := h.sessions.Destroy(r.Context(), old.Token); err != nil {
			h.log.Warn("failed to destroy previous session", "error", err)
		}
	}
	middleware.ReplaceSession(w, r, sess)

	response.OK(w, id)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if old := middleware.GetSession(r.Context()); old != nil {
		if err := h.sessions.Destroy(r.Context(), old.Token); err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
	}

	sess, err := h.sessions.Start(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.sessions.SetFlash(r.Context(), sess, LoggedOutMessage); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	middleware.ReplaceSession(w, r, sess)

	response.OK(w, map[string]string{"status": "logged_out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, apierror.Unauthorized(middleware.LoginRequiredMessage))
		return
	}
	response.OK(w, id)
}

// Flash handles GET /api/v1/auth/flash
func (h *AuthHandler) Flash(w http.ResponseWriter, r *http.Request) {
	msg := ""
	if sess := middleware.GetSession(r.Context()); sess != nil {
		var err error
		msg, err = h.sessions.PopFlash(r.Context(), sess)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
	}
	response.OK(w, map[string]string{"message": msg})
}
