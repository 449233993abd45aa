package formsession

import (
	"context"
	"log/slog"
	"strings"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

type saveTrigger int

const (
	triggerAuto saveTrigger = iota
	triggerManual
)

func (t saveTrigger) String() string {
	if t == triggerManual {
		return "manual"
	}
	return "auto"
}

// hasMinimumDataLocked: a practice name plus one way to contact it
func (s *Session) hasMinimumDataLocked() bool {
	hasName := strings.TrimSpace(s.fields.PracticeName) != ""
	hasContact := strings.TrimSpace(s.fields.Phone) != "" || strings.TrimSpace(s.fields.Email) != ""
	return hasName && hasContact
}

func (s *Session) draftWorthyLocked(leaving Step) bool {
	return leaving >= StepPracticeInfo && (s.editing || s.hasMinimumDataLocked())
}

// scheduleDraftLocked (re)arms the debounce timer. A newer schedule
// supersedes any pending one.
func (s *Session) scheduleDraftLocked() {
	s.stopDraftTimerLocked()
	gen := s.draftGen
	s.draftTimer = s.clock.AfterFunc(s.cfg.DraftDebounce, func() {
		s.fireDraft(gen)
	})
}

func (s *Session) stopDraftTimerLocked() {
	if s.draftTimer != nil {
		s.draftTimer.Stop()
		s.draftTimer = nil
	}
	s.draftGen++
}

func (s *Session) fireDraft(gen uint64) {
	s.mu.Lock()
	if gen != s.draftGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.draftTimer = nil
	if s.saving {
		s.mu.Unlock()
		s.logger.Warn("Save already in progress, skipping scheduled draft")
		return
	}
	s.mu.Unlock()

	_ = s.saveDraft(context.Background(), triggerAuto)
}

// SaveDraft persists the form as a draft on user request. Failures are
// shown as a notice and returned.
func (s *Session) SaveDraft(ctx context.Context) error {
	return s.saveDraft(ctx, triggerManual)
}

func (s *Session) saveDraft(ctx context.Context, trigger saveTrigger) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		s.logger.Warn("Save already in progress, skipping",
			slog.String("trigger", trigger.String()),
			slog.String("code", string(apperrors.ErrCodeSaveConflict)))
		return ErrSaveInProgress
	}
	if !s.editing && !s.hasMinimumDataLocked() {
		s.mu.Unlock()
		s.logger.Debug("Insufficient data for draft save, skipping",
			slog.String("trigger", trigger.String()))
		return nil
	}
	if trigger == triggerManual {
		s.stopDraftTimerLocked()
	}

	payload := s.payloadLocked(domain.VisitStatusDraft)
	revision := s.revision
	s.saving = true
	s.mu.Unlock()

	defer s.releaseSaving()

	result, err := s.persist(ctx, payload)

	s.mu.Lock()
	if err != nil {
		if trigger == triggerManual {
			s.showNoticeLocked("❌ "+userMessage(err), s.cfg.SaveErrorNotice)
		}
		s.mu.Unlock()
		s.logger.Error("Draft save failed",
			slog.String("trigger", trigger.String()),
			logger.Err(err))
		return err
	}

	assigned := s.adoptRecordIDLocked(result.VisitID)
	s.markSavedLocked(revision)
	if trigger == triggerManual {
		s.showNoticeLocked("✓ Draft saved", s.cfg.ManualSaveNotice)
	} else {
		s.showNoticeLocked("✓ Auto-saved", s.cfg.AutoSaveNotice)
	}
	writeRecovery := assigned && !s.editing
	key := s.sessionKey
	recordID := s.recordID
	s.mu.Unlock()

	if writeRecovery {
		s.persistRecovery(ctx, key, recordID)
	}

	s.logger.Info("Draft saved",
		slog.String("trigger", trigger.String()),
		slog.String("record_id", recordID),
		slog.Bool("created", payload.ID == ""))
	return nil
}

// persist calls the persistence service and folds an unsuccessful reply
// into a PERSISTENCE_ERROR
func (s *Session) persist(ctx context.Context, payload domain.VisitPayload) (domain.SaveResult, error) {
	result, err := s.persister.Save(ctx, payload)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodePersistence) {
			return result, err
		}
		if appErr, ok := apperrors.GetAppError(err); ok {
			return result, apperrors.PersistenceFailed(err, appErr.Message)
		}
		return result, apperrors.PersistenceFailed(err, err.Error())
	}
	if !result.Success {
		return result, apperrors.PersistenceFailed(nil, result.Error)
	}
	return result, nil
}

// adoptRecordIDLocked assigns the first id the backend returns. Once set the
// id never changes for the rest of the session.
func (s *Session) adoptRecordIDLocked(id string) bool {
	if id == "" || s.closed {
		return false
	}
	if s.recordID == "" {
		s.recordID = id
		return true
	}
	if s.recordID != id {
		s.logger.Warn("Ignoring record id that differs from the assigned one",
			slog.String("record_id", s.recordID),
			slog.String("returned_id", id))
	}
	return false
}

// markSavedLocked clears dirty unless the user edited after the snapshot
// was taken
func (s *Session) markSavedLocked(revision uint64) {
	if s.revision == revision {
		s.dirty = false
	}
	s.lastSave = s.clock.Now()
}

func (s *Session) releaseSaving() {
	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()
}

func userMessage(err error) string {
	if appErr, ok := apperrors.GetAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return apperrors.GenericSaveMessage
}
