package mail

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is one outbound transactional email.
type Message struct {
	To             string
	Subject        string
	HTML           string
	AttachmentPath string
}

// Mailer sends a single message synchronously.
type Mailer interface {
	Enabled() bool
	Send(msg Message) error
}

// SMTPMailer sends through a gomail dialer. When SMTP is not configured the
// mailer is disabled and every send is a successful no-op.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer. Pass enabled=false to disable sending
// entirely (absent SMTP configuration).
func NewSMTPMailer(host string, port int, user, password, from string, enabled bool) *SMTPMailer {
	m := &SMTPMailer{from: from, enabled: enabled}
	if enabled {
		m.dialer = gomail.NewDialer(host, port, user, password)
	}
	return m
}

// Enabled reports whether sends actually go out.
func (m *SMTPMailer) Enabled() bool {
	return m.enabled
}

// Send delivers one message, attaching a file when the message carries one.
func (m *SMTPMailer) Send(msg Message) error {
	if !m.enabled {
		return nil
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	if msg.AttachmentPath != "" {
		gm.Attach(msg.AttachmentPath)
	}

	return m.dialer.DialAndSend(gm)
}

// Dispatcher is the best-effort, non-blocking send path. Failures are
// logged and never reach the caller; a full queue drops the message rather
// than blocking the request that produced it.
type Dispatcher struct {
	mailer Mailer
	logger *zap.Logger
	queue  chan Message
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(mailer Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, 64),
	}
}

// Enqueue submits a message for background delivery. Never blocks.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
	}
}

// Run delivers queued messages until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			if err := d.mailer.Send(msg); err != nil {
				d.logger.Error("mail send failed",
					zap.String("to", msg.To),
					zap.String("subject", msg.Subject),
					zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
