package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// mockEnqueuer implements TaskEnqueuer for testing
type mockEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	seen  map[string]bool
	err   error
}

func newMockEnqueuer() *mockEnqueuer {
	return &mockEnqueuer{seen: make(map[string]bool)}
}

func (m *mockEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	id := taskID(opts)
	if m.seen[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	m.seen[id] = true
	m.tasks = append(m.tasks, task)
	m.opts = append(m.opts, opts)
	return &asynq.TaskInfo{ID: id, Queue: "notifications"}, nil
}

func taskID(opts []asynq.Option) string {
	for _, o := range opts {
		if o.Type() == asynq.TaskIDOpt {
			return o.Value().(string)
		}
	}
	return ""
}

type mockMailer struct {
	sent []Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testVisit() *domain.Visit {
	return &domain.Visit{
		ID:              uuid.MustParse("0b7e3c52-7d1f-4c8e-a1b2-c3d4e5f60718"),
		VisitDate:       time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		PracticeName:    "<b>Acme</b> & Co",
		Phone:           "5551234567",
		Email:           "a@b.com",
		Address:         "1 Main St",
		TopicsDiscussed: "<script>alert(1)</script>Pricing",
		SamplesProvided: []domain.SampleEntry{{Name: "IPR Glide", Quantity: 2}, {Name: "Travel Kit", Quantity: 1}},
		CreditCard:      &domain.CreditCard{Number: "4242424242424242"},
		Status:          domain.VisitStatusSaved,
		UpdatedAt:       time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC),
	}
}

func TestFingerprint(t *testing.T) {
	v := testVisit()

	a, err := Fingerprint(v, KindNew)
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := Fingerprint(v, KindNew)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same save yields the same fingerprint")

	c, err := Fingerprint(v, KindUpdate)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	v.UpdatedAt = v.UpdatedAt.Add(time.Second)
	d, err := Fingerprint(v, KindNew)
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "a later save is a new notification")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "New Visit Recorded - Acme", Subject(KindNew, "Acme"))
	assert.Equal(t, "[UPDATE] Visit Updated - Acme", Subject(KindUpdate, "Acme"))
	assert.Equal(t, "Visit Submitted - Acme", Subject(KindSubmit, "Acme"))
	assert.Equal(t, "New Visit Recorded - O'Brien Dental", Subject(KindNew, "<i>O'Brien</i> Dental"))
}

func TestCompose(t *testing.T) {
	v := testVisit()
	msg := Compose(TaskPayload{Kind: KindUpdate, Visit: *v, HasCreditCard: true})

	assert.Equal(t, "[UPDATE] Visit Updated - Acme & Co", msg.Subject)
	assert.Contains(t, msg.HTML, "<h2>Visit Updated</h2>")
	assert.Contains(t, msg.HTML, "Acme &amp; Co")
	assert.NotContains(t, msg.HTML, "<b>")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "March 10, 2026")
	assert.Contains(t, msg.HTML, "IPR Glide: 2, Travel Kit: 1")
	assert.Contains(t, msg.HTML, "<strong>Credit Card:</strong> Provided")
	assert.NotContains(t, msg.HTML, "Other Sample")

	v.SamplesProvided = nil
	v.OtherSample = "Floss picks"
	msg = Compose(TaskPayload{Kind: KindNew, Visit: *v})
	assert.Contains(t, msg.HTML, "<strong>Samples Provided:</strong> None")
	assert.Contains(t, msg.HTML, "<strong>Other Sample:</strong> Floss picks")
	assert.Contains(t, msg.HTML, "Not provided")
}

func TestService_Notify(t *testing.T) {
	ctx := context.Background()
	enq := newMockEnqueuer()
	service := NewService(DefaultConfig(), enq, logger.Discard())

	v := testVisit()
	require.NoError(t, service.Notify(ctx, v, KindNew))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeVisitNotify, enq.tasks[0].Type())

	var p TaskPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	assert.Equal(t, KindNew, p.Kind)
	assert.True(t, p.HasCreditCard)
	assert.Nil(t, p.Visit.CreditCard, "card data stays out of the queue")
	assert.Equal(t, v.ID, p.Visit.ID)

	fp, err := Fingerprint(v, KindNew)
	require.NoError(t, err)
	assert.Equal(t, fp, taskID(enq.opts[0]))
	assert.Equal(t, fp, p.Fingerprint)
	assert.NotNil(t, v.CreditCard, "caller's visit is untouched")

	// Same save again is absorbed
	require.NoError(t, service.Notify(ctx, v, KindNew))
	assert.Len(t, enq.tasks, 1)
}

func TestService_NotifyErrors(t *testing.T) {
	ctx := context.Background()
	enq := newMockEnqueuer()
	service := NewService(DefaultConfig(), enq, nil)

	err := service.Notify(ctx, testVisit(), Kind("bogus"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))

	enq.err = errors.New("redis down")
	err = service.Notify(ctx, testVisit(), KindSubmit)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueueError))
}

func TestHandler_ProcessTask(t *testing.T) {
	mailer := &mockMailer{}
	handler := NewHandler(mailer, logger.Discard())

	payload, err := json.Marshal(TaskPayload{Kind: KindSubmit, Visit: *testVisit()})
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeVisitNotify, payload)))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Visit Submitted - Acme & Co", mailer.sent[0].Subject)

	err = handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeVisitNotify, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	mailer.err = errors.New("relay refused")
	err = handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeVisitNotify, payload))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "delivery failures are retried")
}

func TestSMTPMailer(t *testing.T) {
	t.Run("unconfigured skips", func(t *testing.T) {
		mailer := NewSMTPMailer(&config.MailConfig{Host: "smtp.example.com"}, logger.Discard())
		called := false
		mailer.send = func(context.Context, *mail.Msg) error {
			called = true
			return nil
		}

		assert.False(t, mailer.Enabled())
		require.NoError(t, mailer.Send(context.Background(), Message{Subject: "s"}))
		assert.False(t, called)
	})

	t.Run("sends html message", func(t *testing.T) {
		mailer := NewSMTPMailer(testMailConfig(), logger.Discard())

		var sent *mail.Msg
		mailer.send = func(_ context.Context, msg *mail.Msg) error {
			sent = msg
			return nil
		}

		require.NoError(t, mailer.Send(context.Background(), Message{Subject: "New Visit Recorded - Acme\r\nBcc: x", HTML: "<p>hi</p>"}))
		require.NotNil(t, sent)
		assert.Equal(t, []string{"<office@door2door.example>"}, sent.GetToString())

		raw := renderMail(t, sent)
		assert.Contains(t, raw, "Subject: New Visit Recorded - Acme  Bcc: x\r\n")
		assert.NotContains(t, raw, "\nBcc:")
		assert.Contains(t, raw, "Content-Type: text/html")
		assert.Contains(t, raw, "<p>hi</p>")
	})

	t.Run("non-ascii subject and long body stay within mail limits", func(t *testing.T) {
		mailer := NewSMTPMailer(testMailConfig(), logger.Discard())
		var sent *mail.Msg
		mailer.send = func(_ context.Context, msg *mail.Msg) error {
			sent = msg
			return nil
		}

		visit := testVisit()
		visit.PracticeName = "Clínica Dental Niño"
		visit.TopicsDiscussed = strings.Repeat("aligner care ", 200)
		email := Compose(TaskPayload{Kind: KindNew, Visit: *visit})
		require.NoError(t, mailer.Send(context.Background(), email))

		raw := renderMail(t, sent)
		lower := strings.ToLower(raw)
		assert.NotContains(t, raw, "Niño", "subject and body are encoded, not raw UTF-8")
		assert.Contains(t, lower, "subject: =?utf-8?")
		assert.Contains(t, lower, "content-transfer-encoding: quoted-printable")
		var hasDate, hasMessageID bool
		for _, line := range strings.Split(raw, "\r\n") {
			assert.LessOrEqual(t, len(line), 998)
			hasDate = hasDate || strings.HasPrefix(line, "Date: ")
			hasMessageID = hasMessageID || strings.HasPrefix(line, "Message-ID: ")
		}
		assert.True(t, hasDate, "Date header")
		assert.True(t, hasMessageID, "Message-ID header")
	})

	t.Run("delivery error is wrapped", func(t *testing.T) {
		mailer := NewSMTPMailer(testMailConfig(), logger.Discard())
		mailer.send = func(context.Context, *mail.Msg) error { return errors.New("454 try later") }

		err := mailer.Send(context.Background(), Message{Subject: "s", HTML: "<p>x</p>"})
		assert.EqualError(t, err, "smtp send via smtp.example.com: 454 try later")
	})

	t.Run("bad from address", func(t *testing.T) {
		cfg := testMailConfig()
		cfg.From = "not an address"
		mailer := NewSMTPMailer(cfg, logger.Discard())
		mailer.send = func(context.Context, *mail.Msg) error { return nil }

		assert.Error(t, mailer.Send(context.Background(), Message{Subject: "s"}))
	})
}

func testMailConfig() *config.MailConfig {
	return &config.MailConfig{
		To:       "office@door2door.example",
		From:     "noreply@door2door.com",
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
	}
}

func renderMail(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}
