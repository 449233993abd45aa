package repositories

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// VisitRepository implements visits.Repository using GORM
type VisitRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewVisitRepository creates a new repository instance
func NewVisitRepository(db *gorm.DB, log *slog.Logger) *VisitRepository {
	if log == nil {
		log = slog.Default()
	}

	return &VisitRepository{
		db:     db,
		logger: log,
	}
}

// Create inserts a visit and fills in its id and timestamps
func (r *VisitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	if err := r.db.WithContext(ctx).Create(visit).Error; err != nil {
		r.logger.Error("failed to create visit", logger.Err(err))
		return apperrors.DatabaseError(err)
	}
	return nil
}

// Update writes every column of an existing visit
func (r *VisitRepository) Update(ctx context.Context, visit *domain.Visit) error {
	result := r.db.WithContext(ctx).
		Model(visit).
		Select("*").
		Omit("id", "created_at").
		Updates(visit)

	if result.Error != nil {
		r.logger.Error("failed to update visit",
			slog.String("visit_id", visit.ID.String()),
			logger.Err(result.Error))
		return apperrors.DatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.RecordNotFound("visit")
	}
	return nil
}

// FindByID loads one visit
func (r *VisitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error) {
	var visit domain.Visit

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&visit).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.RecordNotFound("visit")
	}
	if err != nil {
		r.logger.Error("failed to find visit",
			slog.String("visit_id", id.String()),
			logger.Err(err))
		return nil, apperrors.DatabaseError(err)
	}
	return &visit, nil
}

// List returns one page ordered by visit date then creation time, newest first
func (r *VisitRepository) List(ctx context.Context, offset, limit int) ([]domain.Visit, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Visit{}).Count(&total).Error; err != nil {
		r.logger.Error("failed to count visits", logger.Err(err))
		return nil, 0, apperrors.DatabaseError(err)
	}

	var visits []domain.Visit
	err := r.db.WithContext(ctx).
		Order("visit_date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&visits).
		Error

	if err != nil {
		r.logger.Error("failed to list visits",
			slog.Int("offset", offset),
			slog.Int("limit", limit),
			logger.Err(err))
		return nil, 0, apperrors.DatabaseError(err)
	}

	return visits, total, nil
}

// Delete removes one visit
func (r *VisitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Visit{})

	if result.Error != nil {
		r.logger.Error("failed to delete visit",
			slog.String("visit_id", id.String()),
			logger.Err(result.Error))
		return apperrors.DatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.RecordNotFound("visit")
	}
	return nil
}
