package formsession

import (
	"context"
	"log/slog"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// Submit performs the authoritative save from the review step. The outgoing
// status is always saved. On failure the session is left as it was so the
// user can retry.
func (s *Session) Submit(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case s.lifecycle.Is(string(StateSubmitted)):
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case s.lifecycle.Is(string(StateSubmitting)):
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	case s.step != TerminalStep:
		s.mu.Unlock()
		return nil, ErrNotTerminalStep
	case s.saving:
		s.mu.Unlock()
		s.logger.Warn("Draft save in flight, submission not attempted")
		return nil, ErrSaveInProgress
	}
	if !s.validateCurrentLocked() {
		s.mu.Unlock()
		return nil, ErrValidationFailed
	}
	if err := s.lifecycle.Event(ctx, eventSubmit); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.stopDraftTimerLocked()
	s.saving = true

	category, realUpdate := s.categoryLocked()
	payload := s.payloadLocked(domain.VisitStatusSaved)
	if s.editing {
		payload.IsRealUpdate = &realUpdate
	}
	revision := s.revision

	if category == CategoryUpdate {
		s.showNoticeLocked("Updating visit data...", 0)
	} else {
		s.showNoticeLocked("Saving visit data...", 0)
	}
	s.mu.Unlock()

	defer s.releaseSaving()

	result, err := s.persist(ctx, payload)

	s.mu.Lock()
	if err != nil {
		_ = s.lifecycle.Event(ctx, eventFail)
		s.showNoticeLocked("❌ Error: "+userMessage(err), 0)
		s.mu.Unlock()
		s.logger.Error("Submission failed",
			slog.String("category", string(category)),
			logger.Err(err))
		return nil, err
	}

	_ = s.lifecycle.Event(ctx, eventSucceed)
	s.adoptRecordIDLocked(result.VisitID)
	recordID := s.recordID
	s.markSavedLocked(revision)

	if category == CategoryUpdate {
		s.showNoticeLocked("✅ Visit updated successfully!", 0)
	} else {
		s.showNoticeLocked("✅ Visit saved successfully!", 0)
	}

	clearKey := !s.editing
	if clearKey {
		s.recordID = ""
	}
	key := s.sessionKey
	if host := s.host; host != nil {
		s.clock.AfterFunc(s.cfg.ReturnDelay, func() {
			host.OnSubmitted(recordID)
		})
	}
	s.mu.Unlock()

	if clearKey {
		s.clearRecovery(ctx, key)
	}

	s.logger.Info("Visit submitted",
		slog.String("record_id", recordID),
		slog.String("category", string(category)))

	return &SubmitResult{
		Success:      true,
		RecordID:     recordID,
		Category:     category,
		IsRealUpdate: realUpdate,
	}, nil
}

func (s *Session) categoryLocked() (Category, bool) {
	switch {
	case !s.editing:
		return CategoryNew, false
	case s.originalStatus == OriginalSaved:
		return CategoryUpdate, true
	default:
		return CategorySubmit, false
	}
}
