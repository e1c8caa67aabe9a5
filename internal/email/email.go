package email

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/islandechoes/health-api/internal/config"
)

// Service sends the transactional emails the portal depends on. Delivery
// failures are reported, never silently dropped.
type Service interface {
	SendPasswordReset(to, resetURL string) error
	SendTemporaryCredentials(to, fullName, tempPassword, loginURL string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendPasswordReset(to, resetURL string) error {
	body := fmt.Sprintf(`
		<p>We received a request to reset your Island Echoes Health password.</p>
		<p><a href="%s">Reset your password</a></p>
		<p>This link expires in one hour. If you did not request a reset, you can ignore this email.</p>
	`, resetURL)
	return s.send(to, "Reset your password", body)
}

func (s *smtpService) SendTemporaryCredentials(to, fullName, tempPassword, loginURL string) error {
	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Your clinician application was approved. A staff account has been created for you.</p>
		<p>Temporary password: <strong>%s</strong></p>
		<p><a href="%s">Sign in</a> and change your password after your first login.</p>
	`, fullName, tempPassword, loginURL)
	return s.send(to, "Your clinician account is ready", body)
}
