package formsession

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// State is the lifecycle position of a session
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateClosed     State = "closed"
)

const (
	eventSubmit  = "submit"
	eventSucceed = "succeed"
	eventFail    = "fail"
)

// Options configures a Session
type Options struct {
	// Persister is required
	Persister Persister
	// Recovery enables resuming an interrupted new-visit session. Nil disables it.
	Recovery *RecoveryStore
	Host     Host
	// Existing hydrates the session for editing a stored visit
	Existing *domain.Visit
	// SessionKey reuses a recovery key; empty generates a fresh one
	SessionKey string
	Clock      Clock
	Logger     *slog.Logger
	Config     Config
}

// Session is the live editing state of one visit form. It is safe for
// concurrent use; background saves run on timer goroutines.
type Session struct {
	mu sync.Mutex

	cfg       Config
	clock     Clock
	logger    *slog.Logger
	persister Persister
	recovery  *RecoveryStore
	host      Host

	sessionKey     string
	editing        bool
	originalStatus OriginalStatus

	step         Step
	fields       Fields
	quantities   SampleQuantities
	extraSamples map[string]string
	toggles      Toggles
	errors       Errors

	recordID string
	dirty    bool
	revision uint64
	saving   bool
	lastSave time.Time
	closed   bool

	draftTimer Timer
	draftGen   uint64

	notice    string
	noticeGen uint64

	lifecycle *fsm.FSM
}

// New creates a session. Without Existing it looks up the recovery store so
// a reloaded session keeps updating the record it already created.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Persister == nil {
		return nil, ErrMissingPersister
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Session{
		cfg:          opts.Config.withDefaults(),
		clock:        clock,
		logger:       log.With(slog.String("component", "form_session")),
		persister:    opts.Persister,
		recovery:     opts.Recovery,
		host:         opts.Host,
		step:         FirstStep,
		quantities:   SampleQuantities{},
		extraSamples: make(map[string]string),
		errors:       Errors{},
	}
	s.lifecycle = s.newLifecycle()

	if opts.Existing != nil {
		s.hydrate(opts.Existing)
		s.logger = s.logger.With(slog.String("record_id", s.recordID))
		s.logger.Debug("Session opened for existing visit",
			slog.String("original_status", string(s.originalStatus)))
		return s, nil
	}

	s.fields.VisitDate = atNoon(clock.Now())
	s.sessionKey = opts.SessionKey
	if s.sessionKey == "" {
		s.sessionKey = GenerateSessionKey(clock.Now())
	}
	s.logger = s.logger.With(slog.String("session_key", s.sessionKey))

	if s.recovery != nil {
		id, ok, err := s.recovery.Lookup(ctx, s.sessionKey)
		switch {
		case err != nil:
			s.logger.Warn("Recovery lookup failed, starting fresh", logger.Err(err))
		case ok:
			s.recordID = id
			s.logger.Info("Resuming recovered draft", slog.String("record_id", id))
		}
	}

	return s, nil
}

func (s *Session) newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(StateEditing),
		fsm.Events{
			{Name: eventSubmit, Src: []string{string(StateEditing)}, Dst: string(StateSubmitting)},
			{Name: eventSucceed, Src: []string{string(StateSubmitting)}, Dst: string(StateSubmitted)},
			{Name: eventFail, Src: []string{string(StateSubmitting)}, Dst: string(StateEditing)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("Submission state changed",
					slog.String("from", e.Src),
					slog.String("to", e.Dst))
			},
		},
	)
}

func (s *Session) hydrate(v *domain.Visit) {
	s.editing = true
	s.originalStatus = OriginalStatus(v.Status)
	s.recordID = v.ID.String()

	if v.VisitDate.IsZero() {
		s.fields.VisitDate = atNoon(s.clock.Now())
	} else {
		s.fields.VisitDate = atNoon(v.VisitDate)
	}

	s.fields.PracticeName = v.PracticeName
	s.fields.DrName = v.DrName
	s.fields.Phone = v.Phone
	s.fields.Email = v.Email
	s.fields.Address = v.Address
	s.fields.FrontDeskName = v.FrontDeskName
	s.fields.BackOfficeAssistantName = v.BackOfficeAssistantName
	s.fields.OfficeManagerName = v.OfficeManagerName
	s.fields.TopicsDiscussed = v.TopicsDiscussed
	s.fields.OtherSample = v.OtherSample
	s.fields.Survey = v.Survey

	if v.CreditCard != nil {
		s.fields.CardName = v.CreditCard.Name
		s.fields.CardNumber = v.CreditCard.Number
		s.fields.ExpiryMonth = v.CreditCard.ExpiryMonth
		s.fields.ExpiryYear = v.CreditCard.ExpiryYear
		s.fields.CVV = v.CreditCard.CVV
	}
	s.toggles.CreditCard = v.HasCreditCard()

	if len(v.SamplesProvided) > 0 {
		s.toggles.Samples = true
		for _, sample := range v.SamplesProvided {
			id := domain.SampleID(sample.Name)
			s.quantities[id] = sample.Quantity
			if !domain.IsCatalogSample(sample.Name) {
				s.extraSamples[id] = sample.Name
			}
		}
	}

	s.lastSave = v.UpdatedAt
	if s.lastSave.IsZero() {
		s.lastSave = v.CreatedAt
	}
}

// Snapshot is a read-only copy of the session for rendering
type Snapshot struct {
	Step           Step
	Fields         Fields
	Quantities     SampleQuantities
	Toggles        Toggles
	Errors         Errors
	RecordID       string
	SessionKey     string
	Editing        bool
	OriginalStatus OriginalStatus
	Dirty          bool
	Saving         bool
	LastSave       time.Time
	State          State
	Notice         string
}

// Snapshot copies the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantities := make(SampleQuantities, len(s.quantities))
	for k, v := range s.quantities {
		quantities[k] = v
	}

	return Snapshot{
		Step:           s.step,
		Fields:         s.fields,
		Quantities:     quantities,
		Toggles:        s.toggles,
		Errors:         s.errorsLocked(),
		RecordID:       s.recordID,
		SessionKey:     s.sessionKey,
		Editing:        s.editing,
		OriginalStatus: s.originalStatus,
		Dirty:          s.dirty,
		Saving:         s.saving,
		LastSave:       s.lastSave,
		State:          s.stateLocked(),
		Notice:         s.notice,
	}
}

// Errors returns the field errors of the active step plus any carried over
// from other steps
func (s *Session) Errors() Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorsLocked()
}

func (s *Session) errorsLocked() Errors {
	out := make(Errors, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// RecordID returns the persisted record id, empty until the first save
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// SessionKey returns the recovery key; empty for editing sessions
func (s *Session) SessionKey() string {
	return s.sessionKey
}

// IsEditing reports whether the session was hydrated from a stored visit
func (s *Session) IsEditing() bool {
	return s.editing
}

// HasUnsavedChanges reports whether user data changed since the last save
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// State returns the lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.closed {
		return StateClosed
	}
	return State(s.lifecycle.Current())
}

// Cancel abandons the form. Pending draft saves are dropped, the recovery
// entry of a new-visit session is cleared and the host is told to leave.
func (s *Session) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopDraftTimerLocked()

	clearKey := !s.editing && s.recordID != ""
	if !s.editing {
		s.recordID = ""
	}
	key := s.sessionKey
	host := s.host
	s.mu.Unlock()

	if clearKey {
		s.clearRecovery(ctx, key)
	}
	s.logger.Info("Session cancelled")

	if host != nil {
		host.OnCancel()
	}
}

// Unload releases the session when its host goes away. It reports whether
// unsaved changes are being left behind. Recovery cleanup is best-effort.
func (s *Session) Unload(ctx context.Context) bool {
	s.mu.Lock()
	unsaved := s.dirty
	if s.closed {
		s.mu.Unlock()
		return unsaved
	}
	s.closed = true
	s.stopDraftTimerLocked()
	clearKey := !s.editing
	key := s.sessionKey
	s.mu.Unlock()

	if clearKey {
		s.clearRecovery(ctx, key)
	}
	return unsaved
}

func (s *Session) clearRecovery(ctx context.Context, key string) {
	if s.recovery == nil || key == "" {
		return
	}
	if err := s.recovery.Clear(ctx, key); err != nil {
		s.logger.Warn("Failed to clear recovery entry", logger.Err(err))
	}
}

func (s *Session) persistRecovery(ctx context.Context, key, recordID string) {
	if s.recovery == nil || key == "" {
		return
	}
	if err := s.recovery.Persist(ctx, key, recordID); err != nil {
		s.logger.Warn("Failed to persist recovery entry", logger.Err(err))
	}
}

func atNoon(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location())
}
