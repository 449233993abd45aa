package formsession

import (
	"context"
	"errors"
	"log/slog"
)

// Step returns the current step
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// IsFirstStep reports whether Retreat would be a no-op
func (s *Session) IsFirstStep() bool {
	return s.Step() == FirstStep
}

// IsLastStep reports whether Advance would submit
func (s *Session) IsLastStep() bool {
	return s.Step() == TerminalStep
}

// Advance validates the current step and moves forward. On the review step it
// submits instead. Leaving a draft-worthy step schedules a debounced draft
// save after the step change is applied.
func (s *Session) Advance(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.closed || !s.lifecycle.Is(string(StateEditing)) {
		s.mu.Unlock()
		return OutcomeIgnored, nil
	}
	if !s.validateCurrentLocked() {
		s.mu.Unlock()
		return OutcomeBlocked, nil
	}

	if s.step == TerminalStep {
		s.mu.Unlock()
		return s.advanceBySubmitting(ctx)
	}

	leaving := s.step
	s.step++

	if s.draftWorthyLocked(leaving) {
		if s.saving {
			s.logger.Warn("Save already in progress, draft not scheduled",
				slog.Int("step", int(leaving)))
		} else {
			s.scheduleDraftLocked()
		}
	}
	s.mu.Unlock()

	return OutcomeAdvanced, nil
}

func (s *Session) advanceBySubmitting(ctx context.Context) (Outcome, error) {
	_, err := s.Submit(ctx)
	switch {
	case err == nil:
		return OutcomeSubmitted, nil
	case errors.Is(err, ErrSaveInProgress):
		return OutcomeBusy, nil
	case errors.Is(err, ErrValidationFailed):
		return OutcomeBlocked, nil
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrNotTerminalStep), errors.Is(err, ErrAlreadySubmitted):
		return OutcomeIgnored, nil
	default:
		return OutcomeFailed, err
	}
}

// Retreat moves back one step without validating or saving
func (s *Session) Retreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.step <= FirstStep || !s.lifecycle.Is(string(StateEditing)) {
		return false
	}
	s.step--
	return true
}

// JumpTo moves directly to step, clamped to 1..7, without validation
func (s *Session) JumpTo(step Step) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.lifecycle.Is(string(StateEditing)) {
		return s.step
	}
	switch {
	case step < FirstStep:
		step = FirstStep
	case step > TerminalStep:
		step = TerminalStep
	}
	s.step = step
	return s.step
}

// Progress is the completion percentage of the current step
func (s *Session) Progress() float64 {
	return float64(s.Step()) / float64(TotalSteps) * 100
}

// ActionLabel is the text of the forward button
func (s *Session) ActionLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.step != TerminalStep:
		return "Next"
	case s.editing && s.originalStatus == OriginalSaved:
		return "Update"
	default:
		return "Save"
	}
}

// validateCurrentLocked evaluates the current step and replaces that step's
// keys in the error map
func (s *Session) validateCurrentLocked() bool {
	errs := Validate(s.step, s.fields, s.quantities, s.toggles, s.clock.Now())
	for _, key := range stepErrorKeys[s.step] {
		delete(s.errors, key)
	}
	for k, v := range errs {
		s.errors[k] = v
	}
	return len(errs) == 0
}
