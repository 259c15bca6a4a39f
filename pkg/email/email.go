// Package email relays contact messages to the club inbox over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"
)

// Config holds SMTP server configuration.
type Config struct {
	Host     string
	Port     int  // default 465
	Secure   bool // implicit TLS; otherwise STARTTLS when offered
	Username string
	Password string
	From     string
	To       string

	// Timeout for dial and each SMTP command (default 15s).
	Timeout time.Duration

	// PerMinute caps outbound messages across the process. Zero disables it.
	PerMinute int
}

// Missing lists the environment keys required for sending that are empty.
func (c Config) Missing() []string {
	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"SMTP_HOST", c.Host},
		{"SMTP_USER", c.Username},
		{"SMTP_PASS", c.Password},
		{"MAIL_FROM", c.From},
		{"MAIL_TO", c.To},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	return missing
}

// IsConfigured reports whether every required setting is present.
func (c Config) IsConfigured() bool {
	return len(c.Missing()) == 0
}

// Message is a plain-text email. Empty From and To fall back to the sender's
// configured addresses.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
}

var ErrEmptyBody = errors.New("email: message body is empty")

// Sender sends emails using the configured SMTP server.
type Sender struct {
	cfg     Config
	limiter *rate.Limiter
}

// NewSender creates a new email sender with the given configuration.
func NewSender(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &Sender{cfg: cfg}
	if cfg.PerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), cfg.PerMinute)
	}
	return s
}

// Send delivers msg. It blocks while the outbound throttle is exhausted.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if msg.Text == "" {
		return ErrEmptyBody
	}
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}
	to := msg.To
	if len(to) == 0 && s.cfg.To != "" {
		to = []string{s.cfg.To}
	}
	if len(to) == 0 {
		return fmt.Errorf("email: no recipients specified")
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(to...); err != nil {
		return fmt.Errorf("email: invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("email: invalid reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("email: throttled: %w", err)
		}
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

func (s *Sender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return opts
}
