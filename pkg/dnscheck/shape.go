package dnscheck

import (
	"strings"

	"golang.org/x/net/idna"
)

// IsValidDomainShape checks that domain looks like a registrable hostname:
// at most 253 characters, two or more labels of 1 to 63 letters, digits or
// hyphens without a leading or trailing hyphen, and an alphabetic TLD of 2 to
// 24 letters. The name must also convert under the IDNA lookup profile.
func IsValidDomainShape(domain string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" || len(d) > 253 {
		return false
	}

	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !validLabel(l) {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 || len(tld) > 24 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		if tld[i] < 'a' || tld[i] > 'z' {
			return false
		}
	}

	_, err := idna.Lookup.ToASCII(d)
	return err == nil
}

func validLabel(l string) bool {
	if len(l) == 0 || len(l) > 63 {
		return false
	}
	if l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}
	for i := 0; i < len(l); i++ {
		ch := l[i]
		if (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') && ch != '-' {
			return false
		}
	}
	return true
}
