package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/door2door/fieldvisits/internal/pkg/config"
)

const smtpTimeout = 30 * time.Second

// SMTPMailer sends notifications through an SMTP relay
type SMTPMailer struct {
	cfg    *config.MailConfig
	send   func(ctx context.Context, msg *mail.Msg) error
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer. Without a recipient or host every Send is
// logged and skipped.
func NewSMTPMailer(cfg *config.MailConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &SMTPMailer{cfg: cfg, logger: logger}
	m.send = m.dialAndSend
	return m
}

// Enabled reports whether the mailer will actually deliver
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.To != "" && m.cfg.Host != ""
}

// Send delivers msg to the configured recipient
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		m.logger.Info("notification email not configured, skipping",
			slog.String("subject", msg.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	email, err := m.compose(msg)
	if err != nil {
		return err
	}
	if err := m.send(ctx, email); err != nil {
		return fmt.Errorf("smtp send via %s: %w", m.cfg.Host, err)
	}
	return nil
}

// compose builds the MIME message. go-mail encodes the subject, wraps the
// body as quoted-printable and sets the transfer encoding headers.
func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	email := mail.NewMsg()
	if err := email.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := email.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.cfg.To, err)
	}
	email.Subject(strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Subject))
	email.SetDate()
	email.SetMessageID()
	email.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return email, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, email *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(smtpTimeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, email)
}
