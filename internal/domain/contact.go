package domain

import (
	"context"
	"strings"
)

// ContactRequest represents a contact form submission. Only these keys are
// accepted; anything else in the body is rejected.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=80"`
	Email   string `json:"email" validate:"required,max=120,contact_email"`
	Profile string `json:"profile" validate:"omitempty,max=300,profile_url"`
	Message string `json:"message" validate:"required,min=5,max=2000"`

	// Website is a honeypot hidden from humans.
	Website string `json:"website"`
	// StartedAt is when the form was rendered, in epoch milliseconds.
	StartedAt *int64 `json:"startedAt"`
}

// ContactFields lists the accepted JSON keys in declaration order.
var ContactFields = []string{"name", "email", "profile", "message", "website", "startedAt"}

// Normalize trims surrounding whitespace from every text field.
func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Profile = strings.TrimSpace(r.Profile)
	r.Message = strings.TrimSpace(r.Message)
	r.Website = strings.TrimSpace(r.Website)
}

// ContactMeta carries request details used for logging only.
type ContactMeta struct {
	ClientIP  string
	UserAgent string
	RequestID string
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// SendContactMessage runs body through the submission pipeline and relays
	// it to the club inbox. Submissions flagged as bots return nil without
	// sending. Client-facing failures are *apperror.AppError.
	SendContactMessage(ctx context.Context, body []byte, meta ContactMeta) error
}
