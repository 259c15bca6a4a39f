package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventOriginBlocked      EventType = "origin_blocked"
	EventHoneypotTriggered  EventType = "honeypot_triggered"
	EventTimingTriggered    EventType = "timing_triggered"
	EventValidationFailed   EventType = "validation_failed"
	EventTypoRejected       EventType = "typo_rejected"
	EventDomainRejected     EventType = "domain_rejected"
	EventMailFailed         EventType = "mail_failed"
	EventMailNotConfigured  EventType = "mail_not_configured"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Environment  string         `json:"env"`
	Severity     Severity       `json:"severity"`
	Event        EventType      `json:"event"`
	SubjectType  string         `json:"subject_type,omitempty"`  // "email", "ip", "origin"
	SubjectValue string         `json:"subject_value,omitempty"` // masked for PII
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// PersistFunc stores an event outside the log stream.
type PersistFunc func(ctx context.Context, event SecurityEvent) error

// SecurityLogger writes typed security events through zap. A nil
// *SecurityLogger discards everything.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persistFunc PersistFunc
	wg          sync.WaitGroup
}

// NewSecurityLogger wraps l. A nil l is replaced with a no-op logger.
func NewSecurityLogger(l *zap.Logger, serviceName, environment string) *SecurityLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &SecurityLogger{
		zapLogger:   l.Named("security"),
		serviceName: serviceName,
		environment: environment,
	}
}

// SetPersistFunc sets the function to persist events to database
func (sl *SecurityLogger) SetPersistFunc(f PersistFunc) {
	if sl == nil {
		return
	}
	sl.persistFunc = f
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if sl == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment
	event.Severity = GetSeverity(event.Event)

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(event.Severity.Level(), string(event.Event), fields...)

	if sl.persistFunc != nil {
		sl.wg.Add(1)
		go func(e SecurityEvent) {
			defer sl.wg.Done()
			// The request context is usually gone by the time this runs.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			if err := sl.persistFunc(ctx, e); err != nil {
				sl.zapLogger.Error("failed to persist security event", zap.Error(err))
			}
		}(event)
	}
}

// LogRateLimitTriggered logs a request rejected by the contact limiter.
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]any{"endpoint": endpoint},
	})
}

// LogOriginBlocked logs a request whose Origin and Referer were both refused.
func (sl *SecurityLogger) LogOriginBlocked(ctx context.Context, origin, referer, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventOriginBlocked,
		SubjectType:  "origin",
		SubjectValue: origin,
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]any{"referer": referer},
	})
}

// Requester identifies the client behind a submission.
type Requester struct {
	IP        string
	UserAgent string
	RequestID string
}

// LogSubmission logs a contact submission that was dropped or refused after
// the body was parsed. email is masked and hashed before it is written.
func (sl *SecurityLogger) LogSubmission(ctx context.Context, event EventType, email string, from Requester, reason string) {
	e := SecurityEvent{
		Event:     event,
		IP:        from.IP,
		UserAgent: from.UserAgent,
		RequestID: from.RequestID,
	}
	details := map[string]any{}
	if email != "" {
		e.SubjectType = "email"
		e.SubjectValue = MaskEmail(email)
		// Lets repeat senders be correlated without storing the address.
		details["email_hash"] = HashValue(strings.ToLower(email))
	}
	if reason != "" {
		details["reason"] = reason
	}
	if len(details) > 0 {
		e.Details = details
	}
	sl.Log(ctx, e)
}

// Wait blocks until in-flight persistence calls finish.
func (sl *SecurityLogger) Wait() {
	if sl == nil {
		return
	}
	sl.wg.Wait()
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	if sl == nil {
		return nil
	}
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return email[:1] + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
