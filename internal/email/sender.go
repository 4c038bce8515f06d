package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/somahq/soma/internal/observability/logger"
)

// Message es un email listo para enviar.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender envía un Message. Las implementaciones son seguras para uso concurrente.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config selecciona y configura el driver.
type Config struct {
	Driver string // "smtp" | "log"
	SMTP   SMTPConfig
}

// New crea el Sender del driver configurado.
func New(cfg Config) (Sender, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogSender(logger.Named("email")), nil
	case "smtp":
		if cfg.SMTP.Host == "" || cfg.SMTP.From == "" {
			return nil, fmt.Errorf("email: smtp driver requires host and from")
		}
		return FromConfig(cfg.SMTP), nil
	default:
		return nil, fmt.Errorf("email: unknown driver %q", cfg.Driver)
	}
}

// LogSender escribe los mensajes en el logger en vez de enviarlos.
// El cuerpo de texto incluye el link con el token: no usar en producción.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(l *zap.Logger) *LogSender {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogSender{log: l}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("email (log driver)",
		logger.Email(msg.To),
		logger.String("subject", msg.Subject),
		logger.String("text", msg.Text),
	)
	return nil
}
