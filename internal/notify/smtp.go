package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	mail "github.com/go-mail/mail"
	"go.uber.org/zap"

	"github.com/dropDatabas3/viajes/internal/observability/logger"
)

// SMTPNotifier envía el resumen por mail.
type SMTPNotifier struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	To                 []string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool

	// send permite a los tests capturar el mensaje sin servidor SMTP.
	send func(m *mail.Message) error
	// log reemplaza a logger.L() (tests).
	log *zap.Logger
}

// NewSMTPNotifier crea un SMTPNotifier con TLS "auto".
func NewSMTPNotifier(host string, port int, from, user, pass string, to []string) *SMTPNotifier {
	return &SMTPNotifier{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		To:      to,
		TLSMode: "auto",
	}
}

func (s *SMTPNotifier) message(sum Summary) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Subject", sum.Subject())
	m.SetBody("text/plain", sum.Text())
	return m
}

func (s *SMTPNotifier) dialer() *mail.Dialer {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}
	return d
}

// Notify envía el mail. go-mail no recibe context; se respeta solo la
// cancelación previa al envío.
func (s *SMTPNotifier) Notify(ctx context.Context, sum Summary) error {
	if len(s.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	base := s.log
	if base == nil {
		base = logger.L()
	}
	log := base.With(
		logger.Component("notify.smtp"),
		logger.String("host", s.Host),
		logger.String("to", strings.Join(s.To, ",")),
	)

	m := s.message(sum)
	send := s.send
	if send == nil {
		d := s.dialer()
		send = func(m *mail.Message) error { return d.DialAndSend(m) }
	}
	if err := send(m); err != nil {
		diag := DiagnoseSMTP(err)
		log.Error("falló el envío smtp", logger.Err(err),
			logger.String("diag", diag.Code), logger.Bool("temporary", diag.Temporary))
		return fmt.Errorf("notify: smtp send (%s): %w", diag.Code, err)
	}
	log.Info("resumen enviado", logger.RunID(sum.RunID))
	return nil
}
