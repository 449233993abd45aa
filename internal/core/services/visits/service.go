package visits

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/notification"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

const notFoundMessage = "Visit not found"

// Service is the persistence service behind /api/visits
type Service struct {
	config   Config
	repo     Repository
	notifier Notifier
	cleaner  Cleaner
	logger   *slog.Logger
}

// NewService creates a new visits service. notifier and cleaner are optional.
func NewService(config Config, repo Repository, notifier Notifier, cleaner Cleaner, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultConfig().DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = DefaultConfig().MaxPageSize
	}

	return &Service{
		config:   config,
		repo:     repo,
		notifier: notifier,
		cleaner:  cleaner,
		logger:   log,
	}
}

// Save creates the visit when the payload has no id and updates it otherwise
func (s *Service) Save(ctx context.Context, payload domain.VisitPayload) (*SaveOutcome, error) {
	if s.cleaner != nil {
		payload = s.cleaner.Clean(payload)
	}
	if payload.Status == "" {
		payload.Status = domain.VisitStatusSaved
	}
	if !domain.IsValidStatus(payload.Status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status %q", payload.Status))
	}
	if err := checkRequired(payload); err != nil {
		return nil, err
	}

	visitDate, err := parseVisitDate(payload.VisitDate)
	if err != nil {
		return nil, err
	}

	if payload.ID == "" {
		return s.create(ctx, payload, visitDate)
	}
	return s.update(ctx, payload, visitDate)
}

func (s *Service) create(ctx context.Context, payload domain.VisitPayload, visitDate time.Time) (*SaveOutcome, error) {
	visit := &domain.Visit{}
	applyPayload(visit, payload, visitDate)

	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, err
	}

	s.logger.Info("visit created",
		slog.String("visit_id", visit.ID.String()),
		slog.String("status", visit.Status))

	if visit.Status == domain.VisitStatusSaved {
		s.notify(ctx, visit, notification.KindNew)
	}
	return &SaveOutcome{Visit: visit, Created: true}, nil
}

func (s *Service) update(ctx context.Context, payload domain.VisitPayload, visitDate time.Time) (*SaveOutcome, error) {
	visit, err := s.find(ctx, payload.ID)
	if err != nil {
		return nil, err
	}

	applyPayload(visit, payload, visitDate)
	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}

	s.logger.Info("visit updated",
		slog.String("visit_id", visit.ID.String()),
		slog.String("status", visit.Status))

	if visit.Status == domain.VisitStatusSaved {
		kind := notification.KindSubmit
		if payload.IsRealUpdate != nil && *payload.IsRealUpdate {
			kind = notification.KindUpdate
		}
		s.notify(ctx, visit, kind)
	}
	return &SaveOutcome{Visit: visit}, nil
}

// notify never fails the save; the record is already stored
func (s *Service) notify(ctx context.Context, visit *domain.Visit, kind notification.Kind) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, visit, kind); err != nil {
		s.logger.Error("failed to queue visit notification",
			slog.String("visit_id", visit.ID.String()),
			slog.String("kind", string(kind)),
			logger.Err(err))
	}
}

// Get returns one visit
func (s *Service) Get(ctx context.Context, id string) (*domain.Visit, error) {
	return s.find(ctx, id)
}

// Delete removes one visit
func (s *Service) Delete(ctx context.Context, id string) error {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.NotFound(notFoundMessage)
	}
	if err := s.repo.Delete(ctx, visitID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound) {
			return apperrors.NotFound(notFoundMessage)
		}
		return err
	}

	s.logger.Info("visit deleted", slog.String("visit_id", id))
	return nil
}

// List returns a page of visits, newest visit date first
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}

	visits, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []domain.Visit{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{
		Visits:      visits,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalVisits: total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Visit, error) {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFound(notFoundMessage)
	}
	visit, err := s.repo.FindByID(ctx, visitID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound) {
			return nil, apperrors.NotFound(notFoundMessage)
		}
		return nil, err
	}
	return visit, nil
}

func checkRequired(p domain.VisitPayload) error {
	if p.Status != domain.VisitStatusSaved {
		return nil
	}

	values := map[string]string{
		"practiceName":    p.PracticeName,
		"phone":           p.Phone,
		"email":           p.Email,
		"address":         p.Address,
		"topicsDiscussed": p.TopicsDiscussed,
		"visitDate":       p.VisitDate,
	}
	missing := make(map[string]string)
	var names []string
	for _, field := range requiredWhenSaved {
		if strings.TrimSpace(values[field]) == "" {
			missing[field] = field + " is required"
			names = append(names, field)
		}
	}
	if len(names) == 0 {
		return nil
	}

	err := apperrors.Validation(missing)
	err.Message = "Missing required fields: " + strings.Join(names, ", ")
	return err
}

func parseVisitDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("invalid visitDate %q", s))
	}
	return t, nil
}

func applyPayload(v *domain.Visit, p domain.VisitPayload, visitDate time.Time) {
	v.VisitDate = visitDate
	v.PracticeName = p.PracticeName
	v.DrName = p.DrName
	v.Phone = p.Phone
	v.Email = p.Email
	v.Address = p.Address
	v.FrontDeskName = p.FrontDeskName
	v.BackOfficeAssistantName = p.BackOfficeAssistantName
	v.OfficeManagerName = p.OfficeManagerName
	v.SamplesProvided = p.SamplesProvided
	if v.SamplesProvided == nil {
		v.SamplesProvided = []domain.SampleEntry{}
	}
	v.OtherSample = p.OtherSample
	v.TopicsDiscussed = p.TopicsDiscussed
	v.Survey = p.Survey
	v.CreditCard = p.CreditCard
	v.Status = p.Status
}
