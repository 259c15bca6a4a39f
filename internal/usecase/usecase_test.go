package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cricket-club-backend/internal/domain"
	"cricket-club-backend/internal/usecase"
	"cricket-club-backend/pkg/apperror"
	"cricket-club-backend/pkg/clock"
	"cricket-club-backend/pkg/email"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/security"
	"cricket-club-backend/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Mock collaborators
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type MockDomainChecker struct {
	mock.Mock
}

func (m *MockDomainChecker) DomainAcceptsMail(ctx context.Context, domain string) bool {
	return m.Called(ctx, domain).Bool(0)
}

var now = time.UnixMilli(1_750_000_000_000)

type fixture struct {
	uc      domain.ContactUsecase
	mailer  *MockMailer
	domains *MockDomainChecker
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, cfg usecase.ContactConfig) *fixture {
	t.Helper()
	if cfg.MailFrom == "" && cfg.MissingMail == nil {
		cfg.MailFrom = "site@club.example"
		cfg.MailTo = "inbox@club.example"
	}
	f := &fixture{
		mailer:  new(MockMailer),
		domains: new(MockDomainChecker),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.uc = usecase.NewContactUsecase(f.mailer, f.domains, validation.New(), cfg,
		usecase.WithClock(clock.NewFake(now)),
		usecase.WithMetrics(f.metrics),
	)
	return f
}

func (f *fixture) outcome(name string) float64 {
	return testutil.ToFloat64(f.metrics.ContactSubmissions.WithLabelValues(name))
}

func body(fields string) []byte {
	return []byte("{" + fields + "}")
}

const validFields = `"name":"Jane Doe","email":"jane@gmail.com","message":"Hello there, interested in joining!","website":""`

func startedAt(d time.Duration) string {
	return fmt.Sprintf(`,"startedAt":%d`, now.Add(-d).UnixMilli())
}

func requireAppError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, msg, appErr.Message)
}

func TestSendContactMessageDelivers(t *testing.T) {
	f := newFixture(t, usecase.ContactConfig{})
	f.domains.On("DomainAcceptsMail", mock.Anything, "gmail.com").Return(true).Once()
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.ReplyTo == "jane@gmail.com" &&
			m.From == "site@club.example" &&
			len(m.To) == 1 && m.To[0] == "inbox@club.example" &&
			m.Subject == "New Contact Form Message - Jane Doe" &&
			strings.Contains(m.Text, "Profile: -")
	})).Return(nil).Once()

	err := f.uc.SendContactMessage(context.Background(), body(validFields+startedAt(5*time.Second)), domain.ContactMeta{})

	require.NoError(t, err)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
	f.domains.AssertExpectations(t)
	assert.Equal(t, 1.0, f.outcome(metrics.OutcomeSent))
}

func TestSendContactMessageTypo(t *testing.T) {
	f := newFixture(t, usecase.ContactConfig{})

	err := f.uc.SendContactMessage(context.Background(),
		body(`"name":"Jane Doe","email":"jane@ggmail.com","message":"Hello there, interested in joining!"`),
		domain.ContactMeta{})

	requireAppError(t, err, 400, "Did you mean gmail.com?")
	f.domains.AssertNotCalled(t, "DomainAcceptsMail", mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendContactMessageBotSignals(t *testing.T) {
	t.Run("Should silently accept honeypot submissions", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		err := f.uc.SendContactMessage(context.Background(),
			body(`"name":"Jane Doe","email":"jane@gmail.com","message":"Hello there","website":"http://spam.example"`),
			domain.ContactMeta{})

		require.NoError(t, err)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, f.outcome(metrics.OutcomeHoneypot))
	})

	t.Run("Should validate the schema before checking the honeypot", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		err := f.uc.SendContactMessage(context.Background(),
			body(`"name":"J","email":"jane@gmail.com","message":"Hello there","website":"http://spam.example"`),
			domain.ContactMeta{})

		requireAppError(t, err, 400, "Name is too short")
		assert.Equal(t, 0.0, f.outcome(metrics.OutcomeHoneypot))
	})

	t.Run("Should treat whitespace-only honeypot as empty", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		f.domains.On("DomainAcceptsMail", mock.Anything, "gmail.com").Return(true)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		err := f.uc.SendContactMessage(context.Background(),
			body(`"name":"Jane Doe","email":"jane@gmail.com","message":"Hello there","website":"   "`),
			domain.ContactMeta{})

		require.NoError(t, err)
		f.mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Should silently accept instant submissions", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		err := f.uc.SendContactMessage(context.Background(), body(validFields+startedAt(0)), domain.ContactMeta{})

		require.NoError(t, err)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, f.outcome(metrics.OutcomeTiming))
	})

	t.Run("Should flag submissions just under the threshold", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		err := f.uc.SendContactMessage(context.Background(), body(validFields+startedAt(1199*time.Millisecond)), domain.ContactMeta{})

		require.NoError(t, err)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Should continue at the threshold and for future timestamps", func(t *testing.T) {
		for _, d := range []time.Duration{1200 * time.Millisecond, -time.Minute} {
			f := newFixture(t, usecase.ContactConfig{})
			f.domains.On("DomainAcceptsMail", mock.Anything, "gmail.com").Return(true)
			f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

			require.NoError(t, f.uc.SendContactMessage(context.Background(), body(validFields+startedAt(d)), domain.ContactMeta{}))
			f.mailer.AssertNumberOfCalls(t, "Send", 1)
		}
	})
}

func TestSendContactMessageSecurityEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mailer := new(MockMailer)
	uc := usecase.NewContactUsecase(mailer, new(MockDomainChecker), validation.New(),
		usecase.ContactConfig{MailFrom: "site@club.example", MailTo: "inbox@club.example"},
		usecase.WithClock(clock.NewFake(now)),
		usecase.WithSecurityLogger(security.NewSecurityLogger(zap.New(core), "svc", "test")),
	)

	meta := domain.ContactMeta{ClientIP: "203.0.113.9", UserAgent: "Mozilla/5.0 (bot)", RequestID: "req-7"}
	err := uc.SendContactMessage(context.Background(), body(`"name":"Jane Doe","email":"jane@gmail.com","message":"Hello there","website":"spam"`), meta)
	require.NoError(t, err)

	entries := logs.FilterMessage(string(security.EventHoneypotTriggered)).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "203.0.113.9", fields["ip"])
	assert.Equal(t, "Mozilla/5.0 (bot)", fields["user_agent"])
	assert.Equal(t, "req-7", fields["request_id"])
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendContactMessageSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"not json", `{"name":`, "Invalid JSON body"},
		{"array", `[1,2]`, "Invalid JSON body"},
		{"null", `null`, "Invalid JSON body"},
		{"trailing data", `{} {}`, "Invalid JSON body"},
		{"short name", `{"name":"J","email":"jane@gmail.com","message":"Hello there"}`, "Name is too short"},
		{"missing name", `{"email":"jane@gmail.com","message":"Hello there"}`, "Name is too short"},
		{"padded name", `{"name":"  J  ","email":"jane@gmail.com","message":"Hello there"}`, "Name is too short"},
		{"long name", `{"name":"` + strings.Repeat("a", 81) + `","email":"jane@gmail.com","message":"Hello there"}`, "Name is too long"},
		{"bad email", `{"name":"Jane","email":"jane@gmail.co","message":"Hello there"}`, "Invalid email address"},
		{"long email", `{"name":"Jane","email":"` + strings.Repeat("a", 110) + `@example.com","message":"Hello there"}`, "Email is too long"},
		{"bad profile", `{"name":"Jane","email":"jane@gmail.com","profile":"ftp://x.example","message":"Hello there"}`, "Invalid profile URL"},
		{"long profile", `{"name":"Jane","email":"jane@gmail.com","profile":"https://x.example/` + strings.Repeat("a", 300) + `","message":"Hello there"}`, "Profile link is too long"},
		{"short message", `{"name":"Jane","email":"jane@gmail.com","message":"Hi"}`, "Message is too short"},
		{"wrong type", `{"name":42,"email":"jane@gmail.com","message":"Hello there"}`, "Expected string, received number"},
		{"float startedAt", `{"name":"Jane","email":"jane@gmail.com","message":"Hello there","startedAt":1.5}`, "Expected integer, received float"},
		{"unknown key", `{"name":"Jane","email":"jane@gmail.com","message":"Hello there","extra":1}`, "Unrecognized key(s) in object: 'extra'"},
		{"case variant key", `{"name":"Jane","Email":"jane@gmail.com","email":"jane@gmail.com","message":"Hello there"}`, "Unrecognized key(s) in object: 'Email'"},
		{"case variant after exact key", `{"name":"Jane Doe","NAME":"J","email":"jane@gmail.com","message":"Hello there"}`, "Unrecognized key(s) in object: 'NAME'"},
		{"case variant with wrong type", `{"name":"Jane","Name":5,"email":"jane@gmail.com","message":"Hello there"}`, "Unrecognized key(s) in object: 'Name'"},
		{"type errors in field order", `{"message":7,"name":true,"email":"jane@gmail.com"}`, "Expected string, received boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, usecase.ContactConfig{})
			err := f.uc.SendContactMessage(context.Background(), []byte(tt.body), domain.ContactMeta{})

			requireAppError(t, err, 400, tt.msg)
			f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestSendContactMessageFieldErrorsBeforeUnknownKeys(t *testing.T) {
	f := newFixture(t, usecase.ContactConfig{})
	err := f.uc.SendContactMessage(context.Background(),
		[]byte(`{"extra":true,"name":"J","email":"jane@gmail.com","message":"Hello there"}`), domain.ContactMeta{})

	requireAppError(t, err, 400, "Name is too short")
}

func TestSendContactMessageDomainChecks(t *testing.T) {
	t.Run("Should reject unreachable domains", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		f.domains.On("DomainAcceptsMail", mock.Anything, "nowhere.example").Return(false)

		err := f.uc.SendContactMessage(context.Background(),
			body(`"name":"Jane","email":"jane@nowhere.example","message":"Hello there"`), domain.ContactMeta{})

		requireAppError(t, err, 400, "Email domain does not accept mail")
		assert.Equal(t, 1.0, f.outcome(metrics.OutcomeUnreachable))
	})

	t.Run("Should reject domains with oversized labels", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})

		err := f.uc.SendContactMessage(context.Background(),
			body(`"name":"Jane","email":"jane@`+strings.Repeat("a", 64)+`.com","message":"Hello there"`), domain.ContactMeta{})

		requireAppError(t, err, 400, "Invalid email domain")
		f.domains.AssertNotCalled(t, "DomainAcceptsMail", mock.Anything, mock.Anything)
	})
}

func TestSendContactMessageMailFailures(t *testing.T) {
	t.Run("Should fail when mail is not configured", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{MissingMail: []string{"SMTP_HOST", "MAIL_TO"}})
		f.domains.On("DomainAcceptsMail", mock.Anything, "gmail.com").Return(true)

		err := f.uc.SendContactMessage(context.Background(), body(validFields), domain.ContactMeta{})

		requireAppError(t, err, 500, "Server email is not configured")
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Should hide relay errors", func(t *testing.T) {
		f := newFixture(t, usecase.ContactConfig{})
		f.domains.On("DomainAcceptsMail", mock.Anything, "gmail.com").Return(true)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("535 auth failed"))

		err := f.uc.SendContactMessage(context.Background(), body(validFields), domain.ContactMeta{})

		requireAppError(t, err, 500, "Failed to send email")
		assert.ErrorContains(t, errors.Unwrap(err), "535 auth failed")
		assert.Equal(t, 1.0, f.outcome(metrics.OutcomeMailFailed))
	})
}

func TestBuildContactMessage(t *testing.T) {
	req := &domain.ContactRequest{
		Name:    "Jane\r\nBcc: evil@example.com",
		Email:   "jane@gmail.com",
		Profile: "https://club.example/jane",
		Message: "Line one\nLine two\ttabbed",
	}

	msg := usecase.BuildContactMessage(req, "from@club.example", "to@club.example")

	assert.Equal(t, "New Contact Form Message - Jane  Bcc: evil@example.com", msg.Subject)
	assert.Equal(t, "jane@gmail.com", msg.ReplyTo)
	assert.Equal(t, []string{"to@club.example"}, msg.To)
	assert.Contains(t, msg.Text, "Profile: https://club.example/jane\n")
	assert.Contains(t, msg.Text, "Message:\nLine one Line two tabbed\n")
	assert.NotContains(t, msg.Subject, "\n")
}

func TestSafeText(t *testing.T) {
	assert.Equal(t, "a b", usecase.SafeText(" a\x00b\x7f "))
	assert.Equal(t, "héllo wörld", usecase.SafeText("héllo\nwörld"))
	assert.Equal(t, "", usecase.SafeText("\r\n\t"))
}
