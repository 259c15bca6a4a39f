package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cricket-club-backend/internal/domain"
	"cricket-club-backend/pkg/apperror"
	"cricket-club-backend/pkg/clock"
	"cricket-club-backend/pkg/dnscheck"
	"cricket-club-backend/pkg/email"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/security"
	"cricket-club-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MinFillTime is how long a human needs at least to fill in the form.
const MinFillTime = 1200 * time.Millisecond

// Client-facing messages.
const (
	msgInvalidDomain     = "Invalid email domain"
	msgUnreachableDomain = "Email domain does not accept mail"
	msgMailNotConfigured = "Server email is not configured"
	msgMailFailed        = "Failed to send email"
)

// Mailer relays a finished message to the club inbox.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// DomainChecker answers whether an email domain can receive mail.
type DomainChecker interface {
	DomainAcceptsMail(ctx context.Context, domain string) bool
}

// ContactConfig is the mail envelope plus the names of mail settings that
// are missing. A non-empty MissingMail makes every submission fail.
type ContactConfig struct {
	MailFrom    string
	MailTo      string
	MissingMail []string
}

type contactUsecase struct {
	mailer   Mailer
	domains  DomainChecker
	validate *validator.Validate
	cfg      ContactConfig

	clock   clock.Clock
	log     *zap.Logger
	secLog  *security.SecurityLogger
	metrics *metrics.Metrics
}

type ContactOption func(*contactUsecase)

func WithClock(c clock.Clock) ContactOption {
	return func(uc *contactUsecase) { uc.clock = c }
}

func WithLogger(l *zap.Logger) ContactOption {
	return func(uc *contactUsecase) { uc.log = l }
}

func WithSecurityLogger(sl *security.SecurityLogger) ContactOption {
	return func(uc *contactUsecase) { uc.secLog = sl }
}

func WithMetrics(m *metrics.Metrics) ContactOption {
	return func(uc *contactUsecase) { uc.metrics = m }
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(mailer Mailer, domains DomainChecker, validate *validator.Validate, cfg ContactConfig, opts ...ContactOption) domain.ContactUsecase {
	uc := &contactUsecase{
		mailer:   mailer,
		domains:  domains,
		validate: validate,
		cfg:      cfg,
		clock:    clock.Real(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SendContactMessage implements domain.ContactUsecase.
func (uc *contactUsecase) SendContactMessage(ctx context.Context, body []byte, meta domain.ContactMeta) error {
	req, err := uc.parse(body)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Message == msgInvalidJSON {
			uc.metrics.IncSubmission(metrics.OutcomeInvalidJSON)
		} else {
			uc.metrics.IncSubmission(metrics.OutcomeInvalid)
		}
		uc.secLog.LogSubmission(ctx, security.EventValidationFailed, "", requester(meta), err.Error())
		return err
	}

	if req.Website != "" {
		uc.metrics.IncSubmission(metrics.OutcomeHoneypot)
		uc.secLog.LogSubmission(ctx, security.EventHoneypotTriggered, req.Email, requester(meta), "")
		return nil
	}

	if uc.filledTooFast(req.StartedAt) {
		uc.metrics.IncSubmission(metrics.OutcomeTiming)
		uc.secLog.LogSubmission(ctx, security.EventTimingTriggered, req.Email, requester(meta),
			fmt.Sprintf("elapsed_ms=%d", uc.clock.Now().UnixMilli()-*req.StartedAt))
		return nil
	}

	emailDomain := validation.EmailDomain(req.Email)

	if suggestion, ok := validation.DetectProviderTypo(emailDomain); ok {
		uc.metrics.IncSubmission(metrics.OutcomeTypo)
		uc.secLog.LogSubmission(ctx, security.EventTypoRejected, req.Email, requester(meta), suggestion)
		return apperror.BadRequest(fmt.Sprintf("Did you mean %s?", suggestion))
	}

	if !dnscheck.IsValidDomainShape(emailDomain) {
		uc.metrics.IncSubmission(metrics.OutcomeBadDomain)
		uc.secLog.LogSubmission(ctx, security.EventDomainRejected, req.Email, requester(meta), "shape")
		return apperror.BadRequest(msgInvalidDomain)
	}

	if !uc.domains.DomainAcceptsMail(ctx, emailDomain) {
		uc.metrics.IncSubmission(metrics.OutcomeUnreachable)
		uc.secLog.LogSubmission(ctx, security.EventDomainRejected, req.Email, requester(meta), "no_mx_or_address")
		return apperror.BadRequest(msgUnreachableDomain)
	}

	if len(uc.cfg.MissingMail) > 0 {
		uc.log.Error("mail relay not configured", zap.Strings("missing", uc.cfg.MissingMail))
		uc.metrics.IncSubmission(metrics.OutcomeMailUnconfigured)
		uc.secLog.LogSubmission(ctx, security.EventMailNotConfigured, "", requester(meta), strings.Join(uc.cfg.MissingMail, ","))
		return apperror.InternalMessage(msgMailNotConfigured, fmt.Errorf("missing mail settings: %s", strings.Join(uc.cfg.MissingMail, ", ")))
	}

	start := uc.clock.Now()
	err = uc.mailer.Send(ctx, BuildContactMessage(req, uc.cfg.MailFrom, uc.cfg.MailTo))
	uc.metrics.ObserveMailSend(uc.clock.Now().Sub(start), err)
	if err != nil {
		uc.metrics.IncSubmission(metrics.OutcomeMailFailed)
		uc.secLog.LogSubmission(ctx, security.EventMailFailed, req.Email, requester(meta), err.Error())
		return apperror.InternalMessage(msgMailFailed, fmt.Errorf("failed to send contact email: %w", err))
	}

	uc.metrics.IncSubmission(metrics.OutcomeSent)
	uc.log.Info("contact message sent", zap.String("request_id", meta.RequestID), zap.String("email", security.MaskEmail(req.Email)))
	return nil
}

func requester(meta domain.ContactMeta) security.Requester {
	return security.Requester{IP: meta.ClientIP, UserAgent: meta.UserAgent, RequestID: meta.RequestID}
}

// filledTooFast reports whether the form was submitted less than MinFillTime
// after it was rendered. A timestamp in the future is ignored.
func (uc *contactUsecase) filledTooFast(startedAt *int64) bool {
	if startedAt == nil {
		return false
	}
	dt := uc.clock.Now().UnixMilli() - *startedAt
	return dt >= 0 && dt < MinFillTime.Milliseconds()
}

// BuildContactMessage renders the inbox email. The validated address goes
// into Reply-To unchanged; free text is flattened with SafeText.
func BuildContactMessage(req *domain.ContactRequest, from, to string) email.Message {
	profile := req.Profile
	if profile == "" {
		profile = "-"
	}

	var b strings.Builder
	b.WriteString("\nNew message from Canterbury Cricket Club website\n\n")
	fmt.Fprintf(&b, "Name: %s\n", SafeText(req.Name))
	fmt.Fprintf(&b, "Email: %s\n", SafeText(req.Email))
	fmt.Fprintf(&b, "Profile: %s\n\n", SafeText(profile))
	fmt.Fprintf(&b, "Message:\n%s\n", SafeText(req.Message))

	msg := email.Message{
		From:    from,
		ReplyTo: req.Email,
		Subject: "New Contact Form Message - " + SafeText(req.Name),
		Text:    b.String(),
	}
	if to != "" {
		msg.To = []string{to}
	}
	return msg
}

// SafeText replaces control characters (U+0000-U+001F, U+007F) with spaces
// and trims the result, so user text cannot break headers or layout.
func SafeText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s))
}
