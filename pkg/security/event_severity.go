package security

import "go.uber.org/zap/zapcore"

// Severity represents the severity level of a security event
// This is derived from EventType, NOT user-provided
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// EventSeverityMap defines the hard-coded severity for each event type
var EventSeverityMap = map[EventType]Severity{
	// INFO - expected rejections of ordinary user mistakes
	EventValidationFailed: SeverityINFO,
	EventTypoRejected:     SeverityINFO,

	// MEDIUM - delivery problems
	EventDomainRejected: SeverityMEDIUM,
	EventMailFailed:     SeverityMEDIUM,

	// WARN - likely automated traffic
	EventRateLimitTriggered: SeverityWARN,
	EventOriginBlocked:      SeverityWARN,

	// HIGH - bot heuristics fired
	EventHoneypotTriggered: SeverityHIGH,
	EventTimingTriggered:   SeverityHIGH,

	// CRITICAL - the form cannot deliver anything
	EventMailNotConfigured: SeverityCRITICAL,
}

// GetSeverity returns the severity for an event type
// If the event type is not mapped, defaults to MEDIUM
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// Level maps a severity onto the zap level it is logged at.
func (s Severity) Level() zapcore.Level {
	switch s {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityCRITICAL:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

