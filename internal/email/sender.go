package email

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/smtp"

	"tradebill/api/internal/config"
)

// ErrNotConfigured is returned by Send when the SMTP host required for
// delivery is missing from the environment.
var ErrNotConfigured = errors.New("email sender is not configured: SMTP_HOST is not set")

// Sender defines the interface for sending emails.
// The rawMessage parameter should contain the full email message, including headers and body, properly formatted.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender implements the Sender interface using Go's net/smtp package.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a new SMTPSender.
// It returns Sender so we can easily swap implementations (e.g., for testing).
// Missing SMTP credentials are not checked here: Send reports ErrNotConfigured
// instead, so an invoice is never marked sent without a real delivery attempt.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		return &SMTPSender{cfg: cfg}
	}

	auth := smtp.PlainAuth(
		"", // identity
		cfg.SmtpUsername,
		cfg.SmtpPassword,
		cfg.SmtpHost,
	)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: addr,
	}
}

// Send sends an email using SMTP.
// The rawMessage is expected to be the complete email content.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if s.addr == "" {
		return ErrNotConfigured
	}

	err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage)
	if err != nil {
		log.Printf("Failed to send email via SMTP to %v: %v", to, err)
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Printf("Email sent successfully via SMTP to %v (Subject: %s)", to, subject)
	return nil
}

// LoggingSender is a mock implementation that just logs email details.
// Selected via the EMAIL_LOG_ONLY env flag for development without a mail server.
type LoggingSender struct {
	cfg *config.Config
}

// NewLoggingSender creates a LoggingSender.
func NewLoggingSender(cfg *config.Config) Sender {
	return &LoggingSender{cfg: cfg}
}

// Send logs the email details instead of sending.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("To: %v", to)
	log.Printf("Configured From: %s", s.cfg.SmtpFromAddress)
	log.Printf("Subject: %s", subject)
	log.Println("--- Raw Message ---")
	log.Println(string(rawMessage))
	log.Println("--- End Email ---")
	return nil
}
