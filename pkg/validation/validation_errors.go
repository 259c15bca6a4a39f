package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultMessage is returned when an error cannot be mapped to a field message.
const DefaultMessage = "Invalid form data"

// FieldMessages maps struct field -> validation tag -> message shown to the sender.
// A "*" entry is the fallback for tags not listed.
var FieldMessages = map[string]map[string]string{
	"Name": {
		"required": "Name is too short",
		"min":      "Name is too short",
		"max":      "Name is too long",
	},
	"Email": {
		"max": "Email is too long",
		"*":   "Invalid email address",
	},
	"Profile": {
		"max": "Profile link is too long",
		"*":   "Invalid profile URL",
	},
	"Message": {
		"required": "Message is too short",
		"min":      "Message is too short",
		"max":      "Message is too long",
	},
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{DefaultMessage}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// FirstMessage returns the message for the first failing field, in struct order.
func FirstMessage(err error) string {
	msgs := FormatValidationErrors(err)
	if len(msgs) == 0 {
		return DefaultMessage
	}
	return msgs[0]
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	if byTag, ok := FieldMessages[e.StructField()]; ok {
		if msg, ok := byTag[e.Tag()]; ok {
			return msg
		}
		if msg, ok := byTag["*"]; ok {
			return msg
		}
	}
	return fmt.Sprintf("Invalid %s", lowerFirst(e.Field()))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
