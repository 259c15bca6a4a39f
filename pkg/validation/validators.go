package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var profileSchemeRegex = regexp.MustCompile(`^https?$`)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_email", ContactEmail)
	_ = v.RegisterValidation("profile_url", ProfileURL)
}

// New returns a validator with the contact-form rules registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterValidators(v)
	return v
}

// ContactEmail validates an address with IsValidEmail
func ContactEmail(fl validator.FieldLevel) bool {
	return IsValidEmail(fl.Field().String())
}

// ProfileURL accepts an empty value or an absolute http(s) URL
func ProfileURL(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" {
		return true
	}
	return IsHTTPURL(val)
}

// IsHTTPURL reports whether s parses as an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if !profileSchemeRegex.MatchString(strings.ToLower(u.Scheme)) {
		return false
	}
	return u.Host != ""
}
