package validation

import "strings"

// Canonical provider domains checked for near misses, in priority order.
var knownProviderDomains = []string{
	"gmail.com",
	"outlook.com",
	"hotmail.com",
	"live.com",
	"yahoo.com",
	"yahoo.ca",
	"icloud.com",
}

// maxTypoDistance is the largest edit distance still treated as a typo.
const maxTypoDistance = 2

// DetectProviderTypo returns the provider domain the caller most likely meant
// when domain is a near miss of a well-known consumer provider. Only .com and
// .ca domains are considered.
func DetectProviderTypo(domain string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(domain))
	if !strings.HasSuffix(d, ".com") && !strings.HasSuffix(d, ".ca") {
		return "", false
	}

	// yahoo.ca is two edits from yahoo.com; a real provider is never a typo.
	if contains(knownProviderDomains, d) {
		return "", false
	}

	for _, p := range knownProviderDomains {
		if EditDistance(d, p) <= maxTypoDistance {
			return p, true
		}
	}
	return "", false
}

// EditDistance is the Levenshtein distance between a and b, counting
// single-rune insertions, deletions and substitutions.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
