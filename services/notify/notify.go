// Package notify delivers rendered reports over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"hkexwatch/services/report"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/notify")

// ErrNotify wraps any delivery failure so callers can tell a send
// problem apart from fetch or storage problems.
var ErrNotify = errors.New("failed to send notification email")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Receivers    []string `json:"receivers"`
}

type Service struct {
	config SmtpConfig
}

func NewService(config SmtpConfig) Service {
	return Service{config: config}
}

func (s Service) send(ctx context.Context, mail *email.Email) error {
	_, span := tracer.Start(ctx, "send")
	defer span.End()

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	// local relays like mailhog reject AUTH outright, retry without it
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}
	return nil
}

// Notify sends one report to every configured receiver in a single
// message.
func (s Service) Notify(ctx context.Context, rep report.Report) error {
	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()

	if len(s.config.Receivers) == 0 {
		slog.WarnContext(ctx, "no receivers configured, dropping report",
			slog.String("subject", rep.Subject))
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("HKEX Watch <%s>", s.config.EmailAddress)
	mail.To = s.config.Receivers
	mail.Subject = rep.Subject
	mail.Text = []byte(rep.Text)
	mail.HTML = []byte(rep.HTML)

	err := s.send(ctx, mail)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "sent report",
		slog.String("subject", rep.Subject),
		slog.Int("receivers", len(s.config.Receivers)))
	return nil
}

// SendTest sends a short plain message so a fresh deployment can
// verify its SMTP credentials before the first scheduled run.
func (s Service) SendTest(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SendTest")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("HKEX Watch <%s>", s.config.EmailAddress)
	mail.To = s.config.Receivers
	mail.Subject = "HKEX Watch test email"
	mail.Text = []byte("This is a test email. If you can read this, SMTP delivery works.\n")

	return s.send(ctx, mail)
}
