package repositories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// AuthSessionRepository implements auth.SessionRepository using GORM
type AuthSessionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAuthSessionRepository creates a new repository instance
func NewAuthSessionRepository(db *gorm.DB, log *slog.Logger) *AuthSessionRepository {
	if log == nil {
		log = slog.Default()
	}

	return &AuthSessionRepository{
		db:     db,
		logger: log,
	}
}

// Create stores a new login session
func (r *AuthSessionRepository) Create(ctx context.Context, session *domain.AuthSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.logger.Error("failed to create auth session", logger.Err(err))
		return apperrors.DatabaseError(err)
	}
	return nil
}

// FindBySessionID loads a session by its public id
func (r *AuthSessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.AuthSession, error) {
	var session domain.AuthSession

	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.RecordNotFound("session")
	}
	if err != nil {
		r.logger.Error("failed to find auth session", logger.Err(err))
		return nil, apperrors.DatabaseError(err)
	}
	return &session, nil
}

// DeleteBySessionID removes a session; missing sessions are not an error
func (r *AuthSessionRepository) DeleteBySessionID(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.AuthSession{}).
		Error

	if err != nil {
		r.logger.Error("failed to delete auth session", logger.Err(err))
		return apperrors.DatabaseError(err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is not after now
func (r *AuthSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.AuthSession{})

	if result.Error != nil {
		r.logger.Error("failed to delete expired sessions", logger.Err(result.Error))
		return 0, apperrors.DatabaseError(result.Error)
	}
	return result.RowsAffected, nil
}
