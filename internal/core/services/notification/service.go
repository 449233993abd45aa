package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// Service turns saved visits into queued notification tasks
type Service struct {
	config Config
	client TaskEnqueuer
	logger *slog.Logger
}

// NewService creates a new notification service
func NewService(config Config, client TaskEnqueuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		config: config,
		client: client,
		logger: log,
	}
}

// Notify enqueues an email about visit. The fingerprint doubles as the task
// id, so a repeated call for the same save is a no-op.
func (s *Service) Notify(ctx context.Context, visit *domain.Visit, kind Kind) error {
	if !kind.Valid() {
		return apperrors.BadRequest(fmt.Sprintf("unknown notification kind %q", kind))
	}

	fingerprint, err := Fingerprint(visit, kind)
	if err != nil {
		return err
	}

	snapshot := *visit
	snapshot.CreditCard = nil
	payload, err := json.Marshal(TaskPayload{
		Kind:          kind,
		Fingerprint:   fingerprint,
		Visit:         snapshot,
		HasCreditCard: visit.HasCreditCard(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeVisitNotify, payload)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.TaskID(fingerprint),
		asynq.Queue(s.config.Queue),
		asynq.MaxRetry(s.config.MaxRetry),
		asynq.Timeout(s.config.Timeout),
		asynq.Retention(s.config.Retention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		s.logger.Debug("notification already queued",
			slog.String("visit_id", visit.ID.String()),
			slog.String("fingerprint", fingerprint))
		return nil
	}
	if err != nil {
		return apperrors.QueueError(err)
	}

	s.logger.Info("notification queued",
		slog.String("visit_id", visit.ID.String()),
		slog.String("kind", string(kind)),
		slog.String("task_id", info.ID))

	return nil
}

// Handler processes visit:notify tasks on the worker
type Handler struct {
	mailer Mailer
	logger *slog.Logger
}

// NewHandler creates the task handler
func NewHandler(mailer Mailer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{mailer: mailer, logger: log}
}

// ProcessTask renders and sends one notification. Malformed payloads are
// not retried.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("unknown notification kind %q: %w", p.Kind, asynq.SkipRetry)
	}

	msg := Compose(p)
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send notification",
			slog.String("visit_id", p.Visit.ID.String()),
			logger.Err(err))
		return err
	}

	h.logger.Info("notification sent",
		slog.String("visit_id", p.Visit.ID.String()),
		slog.String("kind", string(p.Kind)))
	return nil
}
