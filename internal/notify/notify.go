// Package notify delivers best-effort email notifications. Delivery runs
// after the enrollment commit and entirely outside it: failures are logged
// and swallowed, never surfaced to the paying user.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"

	"github.com/devdesignhq/enroll/internal/config"
)

// EmailSender sends one message. Split out so tests can capture deliveries.
type EmailSender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPSender(host, port, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	return e.Send(addr, auth)
}

// Mailer formats and dispatches the application's notification emails with
// a small bounded retry. A nil sender (SMTP unconfigured) logs and skips.
type Mailer struct {
	sender     EmailSender
	adminEmail string

	maxAttempts  int
	initialDelay time.Duration
}

func NewMailer(sender EmailSender, adminEmail string) *Mailer {
	return &Mailer{
		sender:       sender,
		adminEmail:   adminEmail,
		maxAttempts:  config.EmailMaxAttempts,
		initialDelay: config.EmailInitialDelay,
	}
}

func (m *Mailer) EnrollmentConfirmed(to, bootcampTitle string) {
	body := fmt.Sprintf(`Welcome to our %s Bootcamp

Here are your next steps.
- Join the discord server using this link: https://discord.gg/devdesignhq
- Reach out to your programs manager if you are unable to join.

See You In Class
`, bootcampTitle)
	m.deliver(to, "Congratulations!", body)
}

func (m *Mailer) AdminEnrollmentAlert(userEmail, bootcampTitle string) {
	if m.adminEmail == "" {
		return
	}
	body := fmt.Sprintf("New enrollment: %s enrolled in %s.\n", userEmail, bootcampTitle)
	m.deliver(m.adminEmail, "New bootcamp enrollment", body)
}

func (m *Mailer) PasswordReset(to, token string) {
	body := fmt.Sprintf(`We received a request to reset your password.

Use this link to choose a new one (valid for 1 hour):
https://devdesignhq.com/reset-password?token=%s

If you didn't request this, you can safely ignore this email.
`, token)
	m.deliver(to, "Reset your password", body)
}

func (m *Mailer) Welcome(to, name string) {
	body := fmt.Sprintf(`Hi %s,

Welcome to Dev and Design! We're thrilled to have you join our community of
builders and creators.

Explore the available bootcamps whenever you're ready.

Happy building,
The Dev and Design Team
`, name)
	m.deliver(to, "Welcome to the Dev and Design Community!", body)
}

func (m *Mailer) deliver(to, subject, body string) {
	if m.sender == nil {
		slog.Warn("smtp not configured, skipping email", "to", to, "subject", subject)
		return
	}

	delay := m.initialDelay
	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err = m.sender.Send(to, subject, body); err == nil {
			if attempt > 1 {
				slog.Info("email sent after retry", "to", to, "attempt", attempt)
			}
			return
		}
		if attempt < m.maxAttempts {
			slog.Warn("email send failed, retrying", "to", to, "attempt", attempt, "error", err)
			time.Sleep(delay)
			delay *= 2
		}
	}
	slog.Error("email delivery failed", "to", to, "subject", subject, "error", err)
}
