package validation

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength     = 254
	maxLocalPartLength = 64
)

var (
	tldRegex = regexp.MustCompile(`^[a-z]{2,24}$`)

	// Conservative address shape: dot-atom local part, LDH labels in the domain.
	emailRegex = regexp.MustCompile("^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+@[A-Za-z0-9-]+(\\.[A-Za-z0-9-]+)+$")
)

type providerRule struct {
	base    string
	allowed []string
}

// Consumer providers whose domain must be one of the canonical spellings.
var providerAllowlist = []providerRule{
	{base: "gmail", allowed: []string{"gmail.com"}},
	{base: "yahoo", allowed: []string{"yahoo.com", "yahoo.ca"}},
	{base: "outlook", allowed: []string{"outlook.com"}},
	{base: "hotmail", allowed: []string{"hotmail.com"}},
	{base: "live", allowed: []string{"live.com"}},
	{base: "icloud", allowed: []string{"icloud.com"}},
}

// Frequent fat-finger variants of .com.
var blockedTLDs = map[string]struct{}{
	"con":  {},
	"cmo":  {},
	"comm": {},
	"cim":  {},
	"vom":  {},
	"chh":  {},
}

// IsValidEmail reports whether candidate is an address the contact form accepts.
//
// On top of the shape rules, addresses at a known consumer provider must use
// that provider's canonical domain (gmail.co is rejected), and other domains
// must not end in a common .com typo.
func IsValidEmail(candidate string) bool {
	email := strings.TrimSpace(candidate)

	if email == "" || len(email) > maxEmailLength {
		return false
	}
	if strings.Contains(email, " ") {
		return false
	}

	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}

	local := email[:at]
	domain := strings.ToLower(email[at+1:])

	if local == "" || len(local) > maxLocalPartLength {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	labels := strings.Split(domain, ".")
	for _, l := range labels {
		if l == "" {
			return false
		}
		if strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if !tldRegex.MatchString(tld) {
		return false
	}

	if !emailRegex.MatchString(email) {
		return false
	}

	for _, p := range providerAllowlist {
		if domain == p.base || strings.HasPrefix(domain, p.base+".") {
			return contains(p.allowed, domain)
		}
	}

	if _, blocked := blockedTLDs[tld]; blocked {
		return false
	}

	return true
}

// EmailDomain returns the lower-cased part after the last '@', or "" if there is none.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
