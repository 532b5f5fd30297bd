package sender

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	log "github.com/sirupsen/logrus"

	"salonsites-backend/internal/config"
)

type EmailSender interface {
	SendWelcome(to, name string) error
}

type smtpSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender returns nil when SMTP is not configured; callers treat a
// nil sender as "notifications disabled".
func NewSMTPSender(cfg *config.SMTP) EmailSender {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" || cfg.From == "" {
		log.Warn("SMTP not configured, welcome emails disabled")
		return nil
	}

	return &smtpSender{
		addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host),
	}
}

func (s *smtpSender) SendWelcome(to, name string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = "¡Bienvenido! Tu web para tu salón está en camino"
	e.Text = []byte(fmt.Sprintf(
		"Hola %s:\n\n"+
			"Hemos recibido tu pago y tu cuenta ya está creada.\n"+
			"Al volver a la página de pago accederás automáticamente; también puedes "+
			"restablecer tu contraseña desde la página de inicio de sesión.\n\n"+
			"Gracias por confiar en nosotros.",
		name,
	))

	if err := e.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}

	log.WithField("to", to).Info("welcome email sent")
	return nil
}
