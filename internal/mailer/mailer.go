// Package mailer delivers invitation emails. Delivery is fire-and-forget
// from the caller's perspective; failures are logged, never surfaced.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Invite carries everything needed to render an invitation email
type Invite struct {
	Email       string
	CircleName  string
	InviterName string
	AcceptURL   string
}

// Mailer sends invitation emails
type Mailer interface {
	SendInvitation(ctx context.Context, inv Invite) error
}

// SMTPMailer delivers invitations over SMTP
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTP creates an SMTP-backed mailer
func NewSMTP(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// SendInvitation sends the invitation email
func (m *SMTPMailer) SendInvitation(ctx context.Context, inv Invite) error {
	subject := fmt.Sprintf("%s invited you to join %s on CoWrite", inv.InviterName, inv.CircleName)

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", m.from)
	fmt.Fprintf(&body, "To: %s\r\n", inv.Email)
	fmt.Fprintf(&body, "Subject: %s\r\n", subject)
	body.WriteString("\r\n")
	fmt.Fprintf(&body, "%s invited you to join the circle %q on CoWrite.\r\n\r\n", inv.InviterName, inv.CircleName)
	fmt.Fprintf(&body, "Accept the invitation: %s\r\n", inv.AcceptURL)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{inv.Email}, []byte(body.String())); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	return nil
}

// LogMailer logs invitations instead of sending them. Used in development
// when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLog creates a log-only mailer
func NewLog(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendInvitation logs the invitation
func (m *LogMailer) SendInvitation(ctx context.Context, inv Invite) error {
	m.logger.Info("invitation email (not sent, no SMTP configured)",
		zap.String("to", inv.Email),
		zap.String("circle", inv.CircleName),
		zap.String("inviter", inv.InviterName),
		zap.String("accept_url", inv.AcceptURL))
	return nil
}
