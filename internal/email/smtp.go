package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/somahq/soma/internal/observability/logger"
)

// SMTPConfig es la sección smtp de la config.
type SMTPConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	From               string        `yaml:"from"`
	TLSMode            string        `yaml:"tls_mode"` // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// FromConfig crea un SMTPSender desde SMTPConfig.
func FromConfig(cfg SMTPConfig) *SMTPSender {
	s := &SMTPSender{
		Host:               cfg.Host,
		Port:               cfg.Port,
		From:               cfg.From,
		User:               cfg.Username,
		Pass:               cfg.Password,
		TLSMode:            cfg.TLSMode,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
	}
	if s.Port == 0 {
		s.Port = 587
	}
	if s.TLSMode == "" {
		s.TLSMode = "auto"
	}
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	return s
}

// Send envía msg como multipart/alternative (txt + html).
// go-mail no recibe context; el timeout del dialer acota la espera.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.From(ctx).With(
		logger.Component("SMTPSender"),
		logger.String("smtp_host", s.Host),
		logger.Int("smtp_port", s.Port),
		logger.Email(msg.To),
	)

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.Timeout = s.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
		d.StartTLSPolicy = mail.NoStartTLS
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// "auto": go-mail negocia STARTTLS si el server lo ofrece
	}

	if err := d.DialAndSend(s.buildMessage(msg)); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info("email sent", logger.String("subject", msg.Subject))
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	// Preferimos multipart/alternative (txt + html)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text == "" {
			m.SetBody("text/html", msg.HTML)
		} else {
			m.AddAlternative("text/html", msg.HTML)
		}
	}
	return m
}
