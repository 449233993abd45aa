package formsession

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// fakeClock fires timers only when advanced, on the caller's goroutine
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running due timers in order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// Pending counts timers that have neither fired nor been stopped
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// fakePersister creates records with sequential ids and echoes ids on update
type fakePersister struct {
	mu      sync.Mutex
	calls   []domain.VisitPayload
	created int
	respond func(domain.VisitPayload) (domain.SaveResult, error)
}

func (p *fakePersister) Save(_ context.Context, payload domain.VisitPayload) (domain.SaveResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, payload)
	respond := p.respond
	if payload.ID == "" {
		p.created++
	}
	n := p.created
	p.mu.Unlock()

	if respond != nil {
		return respond(payload)
	}
	if payload.ID == "" {
		return domain.SaveResult{Success: true, VisitID: fmt.Sprintf("rec-%d", n)}, nil
	}
	return domain.SaveResult{Success: true, VisitID: payload.ID}, nil
}

func (p *fakePersister) Calls() []domain.VisitPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.VisitPayload, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *fakePersister) Creates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// blockingPersister holds every call until released
type blockingPersister struct {
	fakePersister
	started chan struct{}
	release chan struct{}
}

func newBlockingPersister() *blockingPersister {
	return &blockingPersister{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (p *blockingPersister) Save(ctx context.Context, payload domain.VisitPayload) (domain.SaveResult, error) {
	p.started <- struct{}{}
	<-p.release
	return p.fakePersister.Save(ctx, payload)
}

type fakeHost struct {
	mu        sync.Mutex
	submitted []string
	cancels   int
}

func (h *fakeHost) OnSubmitted(recordID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.submitted = append(h.submitted, recordID)
}

func (h *fakeHost) OnCancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels++
}

func (h *fakeHost) Submitted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.submitted...)
}

func (h *fakeHost) Cancels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancels
}

// failingKV fails every operation
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("storage unavailable")
}
func (failingKV) Set(context.Context, string, string) error { return fmt.Errorf("storage unavailable") }
func (failingKV) Remove(context.Context, string) error      { return fmt.Errorf("storage unavailable") }

type harness struct {
	clock     *fakeClock
	persister *fakePersister
	kv        *MemoryStore
	recovery  *RecoveryStore
	host      *fakeHost
}

func newHarness() *harness {
	kv := NewMemoryStore()
	return &harness{
		clock:     newFakeClock(),
		persister: &fakePersister{},
		kv:        kv,
		recovery:  NewRecoveryStore(kv, logger.Discard()),
		host:      &fakeHost{},
	}
}

func (h *harness) options() Options {
	return Options{
		Persister: h.persister,
		Recovery:  h.recovery,
		Host:      h.host,
		Clock:     h.clock,
		Logger:    logger.Discard(),
	}
}

func (h *harness) newSession(t *testing.T, mutate ...func(*Options)) *Session {
	t.Helper()
	opts := h.options()
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(context.Background(), opts)
	require.NoError(t, err)
	return s
}

func fillPracticeInfo(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetField(FieldPracticeName, "Acme Dental"))
	require.NoError(t, s.SetField(FieldPhone, "5551234567"))
	require.NoError(t, s.SetField(FieldEmail, "a@b.com"))
	require.NoError(t, s.SetField(FieldAddress, "1 Main St"))
}

// advanceTo walks forward from the visit date step with practice info filled
func advanceTo(t *testing.T, s *Session, step Step) {
	t.Helper()
	ctx := context.Background()
	for s.Step() < step {
		if s.Step() == StepPracticeInfo {
			fillPracticeInfo(t, s)
		}
		outcome, err := s.Advance(ctx)
		require.NoError(t, err)
		require.Equal(t, OutcomeAdvanced, outcome, "blocked on step %d: %v", s.Step(), s.Errors())
	}
}

func existingVisit(status string) *domain.Visit {
	yes := true
	return &domain.Visit{
		ID:              uuid.MustParse("6f1c2a8e-3b5d-4e7f-9a01-23456789abcd"),
		VisitDate:       time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC),
		PracticeName:    "Bright Smiles",
		Phone:           "+1 (555) 987-6543",
		Email:           "office@brightsmiles.example",
		Address:         "22 Elm Street",
		TopicsDiscussed: "Aligner hygiene",
		SamplesProvided: []domain.SampleEntry{
			{Name: "IPR Glide", Quantity: 2},
			{Name: "Travel Kit", Quantity: 1},
		},
		Survey:    domain.Survey{SpokeToDoctor: &yes},
		Status:    status,
		CreatedAt: time.Date(2026, time.February, 14, 15, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC),
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
