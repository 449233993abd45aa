package visits

import (
	"context"

	"github.com/google/uuid"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/notification"
)

// Repository defines visit storage. FindByID and Delete return a
// RECORD_NOT_FOUND AppError when the visit does not exist.
type Repository interface {
	Create(ctx context.Context, visit *domain.Visit) error
	Update(ctx context.Context, visit *domain.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error)

	// List returns one page ordered by visit date then creation time, newest first
	List(ctx context.Context, offset, limit int) ([]domain.Visit, int64, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier queues office notifications about saved visits
type Notifier interface {
	Notify(ctx context.Context, visit *domain.Visit, kind notification.Kind) error
}

// Cleaner normalises user-typed payload text before it is stored
type Cleaner interface {
	Clean(p domain.VisitPayload) domain.VisitPayload
}

// Config for the visits service
type Config struct {
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
}

// DefaultConfig returns default visits configuration
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

// SaveOutcome describes a completed save
type SaveOutcome struct {
	Visit   *domain.Visit
	Created bool
}

// Page is one page of the visit list
type Page struct {
	Visits      []domain.Visit `json:"visits"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalVisits int64          `json:"totalVisits"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
}

// requiredWhenSaved lists the fields a visit must carry once it leaves draft
var requiredWhenSaved = []string{
	"practiceName", "phone", "email", "address", "topicsDiscussed", "visitDate",
}
