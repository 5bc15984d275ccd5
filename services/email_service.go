package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/config"
	"github.com/SaeedKolahi/language-learners-manager/utils"
	"gopkg.in/gomail.v2"
)

// EmailService sends operator-facing email through SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService creates a new EmailService from the SMTP configuration.
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail sends one HTML email.
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

// DigestRow is one line of the daily installment digest.
type DigestRow struct {
	LearnerName string
	Amount      int64
	DueDate     time.Time
	DaysUntil   int
}

// SendInstallmentDigest mails the operator a summary of overdue and
// soon-due installments.
func (s *EmailService) SendInstallmentDigest(to string, rows []DigestRow) error {
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("<h2>Installments needing attention</h2><ul>")
	for _, row := range rows {
		state := fmt.Sprintf("due in %d days", row.DaysUntil)
		if row.DaysUntil < 0 {
			state = fmt.Sprintf("overdue by %d days", -row.DaysUntil)
		}
		b.WriteString(fmt.Sprintf("<li>%s — %s, %s (%s)</li>",
			row.LearnerName,
			utils.FormatAmount(row.Amount),
			utils.FormatDatePersian(row.DueDate),
			state))
	}
	b.WriteString("</ul>")

	subject := fmt.Sprintf("Daily installment digest — %d items", len(rows))
	return s.SendEmail(to, subject, b.String())
}
