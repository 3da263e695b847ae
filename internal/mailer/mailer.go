// Package mailer sends transactional notifications over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPSender sends notification emails through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender creates an SMTP mailer.
func NewSMTPSender(host string, port int, email, password string, log *logger.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, email, password),
		from:   email,
		logger: log.Named("SMTPSender"),
	}
}

// reportResolvedBody renders the notification body shown to a reporter
// when their report is resolved.
func reportResolvedBody(reporterName, adTitle, adminNotes string) (subject, body string) {
	subject = "Your report has been resolved"
	body = fmt.Sprintf("Hi %s,\n\nYour report about the ad %q has been reviewed and resolved by our moderation team.\n", reporterName, adTitle)
	if adminNotes != "" {
		body += fmt.Sprintf("\nModerator notes: %s\n", adminNotes)
	}
	body += "\nThank you for helping keep the marketplace safe.\n"
	return subject, body
}

// SendReportResolved notifies a reporter that their report was resolved.
func (s *SMTPSender) SendReportResolved(ctx context.Context, toEmail, reporterName, adTitle, adminNotes string) error {
	subject, body := reportResolvedBody(reporterName, adTitle, adminNotes)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("Failed to send report resolved email", zap.Error(err), zap.String("to", toEmail))
			return fmt.Errorf("smtp send failed: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("Report resolved email sent", zap.String("to", toEmail))
	return nil
}

// NoopSender satisfies the mailer port without sending anything, for
// environments with no SMTP relay configured.
type NoopSender struct{}

// SendReportResolved does nothing.
func (NoopSender) SendReportResolved(context.Context, string, string, string, string) error {
	return nil
}
