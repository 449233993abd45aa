package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/door2door/fieldvisits/internal/core/services/auth"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// AuthHandler serves /api/auth
type AuthHandler struct {
	svc          AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates the handler. secureCookie marks the session
// cookie HTTPS-only.
func NewAuthHandler(svc AuthService, secureCookie bool, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{svc: svc, secureCookie: secureCookie, logger: log}
}

// RegisterRoutes mounts the auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth", h.Login)
	r.Get("/api/auth", h.Status)
	r.Delete("/api/auth", h.Logout)
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the shared password and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, session, err := h.svc.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Authentication successful",
	})
}

// Status reports whether the caller is logged in
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Status(r.Context(), sessionToken(r))
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"isAuthenticated": status.IsAuthenticated,
		"user":            status.User,
	})
}

// Logout ends the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), sessionToken(r)); err != nil {
		h.logger.Error("logout failed", logger.Err(err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}
