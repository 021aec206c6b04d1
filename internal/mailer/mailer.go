package mailer

import (
	"fmt"

	"chezben/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers transactional email.
type Sender interface {
	SendPasswordReset(to, code string, validMinutes int) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) SendPasswordReset(to, code string, validMinutes int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%s est votre code de réinitialisation Chez-BEN2", code))
	m.SetBody("text/plain", fmt.Sprintf(
		"Bonjour,\n\nUtilisez le code suivant pour réinitialiser votre mot de passe Chez-BEN2 : %s\n\nCe code expirera dans %d minutes.\n\nSi vous n'avez pas demandé cette réinitialisation, ignorez cet e-mail.",
		code, validMinutes))
	return s.dialer.DialAndSend(m)
}
