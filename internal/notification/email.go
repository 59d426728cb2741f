package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"rfid-admin-service/internal/config"
	"rfid-admin-service/internal/util"
)

// Dispatcher delivers the onboarding credential to a new account holder.
// Delivery is best-effort relative to account creation: the caller logs and
// swallows failures, it never rolls the account back.
type Dispatcher interface {
	SendOnboardingCredential(ctx context.Context, emailAddress, password string) error
}

// SMTPDispatcher sends the credential mail through a plain SMTP relay, the
// transport the rest of the platform already uses for customer mail.
type SMTPDispatcher struct {
	config config.SMTPConfig
}

func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{config: cfg}
}

func (d *SMTPDispatcher) SendOnboardingCredential(ctx context.Context, emailAddress, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := d.buildMessage(emailAddress, password)

	var auth smtp.Auth
	if d.config.Username != "" {
		auth = smtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)
	}

	if err := smtp.SendMail(d.config.Addr(), auth, d.config.From, []string{emailAddress}, msg); err != nil {
		return fmt.Errorf("failed to send onboarding mail: %w", err)
	}

	util.Info("Onboarding credential sent",
		util.String("to", emailAddress),
	)

	return nil
}

func (d *SMTPDispatcher) buildMessage(emailAddress, password string) []byte {
	var b strings.Builder

	b.WriteString("From: " + d.config.From + "\r\n")
	b.WriteString("To: " + emailAddress + "\r\n")
	b.WriteString("Subject: ParkNcharge Credentials (no-reply)\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<h1>ParkNcharge</h1>\n")
	b.WriteString("<h2>PLEASE DO NOT SHARE THIS PASSWORD TO ANYONE</h2>\n")
	b.WriteString("<p>" + password + "</p>\n")
	b.WriteString("<p>Kind regards,</p>\n")
	b.WriteString("<p><b>ParkNcharge</b></p>\n")

	return []byte(b.String())
}
