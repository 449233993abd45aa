// Package api provides the HTTP surface for visits and authentication.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/auth"
	"github.com/door2door/fieldvisits/internal/core/services/visits"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// VisitService is what the visit routes need from the persistence service
type VisitService interface {
	Save(ctx context.Context, payload domain.VisitPayload) (*visits.SaveOutcome, error)
	Get(ctx context.Context, id string) (*domain.Visit, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, limit int) (*visits.Page, error)
}

// AuthService is what the auth routes and middleware need
type AuthService interface {
	Login(ctx context.Context, password string) (string, *domain.AuthSession, error)
	Check(ctx context.Context, token string) (*domain.AuthSession, error)
	Status(ctx context.Context, token string) auth.Status
	Logout(ctx context.Context, token string) error
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"success": false, "error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// writeError maps an AppError to its status; anything else is a 500 with a
// generic message
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	if status := apperrors.StatusOf(err); status < http.StatusInternalServerError {
		appErr, _ := apperrors.GetAppError(err)
		Error(w, status, appErr.Message)
		return
	}

	log.Error("request failed", logger.Err(err))
	Error(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperrors.BadRequest("Invalid JSON body")
	}
	return nil
}
