package domains

import (
	"regexp"
	"strings"
)

// AllowedTLDs are the top-level domains the model is trained to prefer.
var AllowedTLDs = []string{"com", "net", "org", "io", "dev", "games", "tech", "online"}

// candidateRE is the strict single-label syntax every extracted suggestion
// must satisfy: an alphanumeric label of two or more characters (interior
// hyphens allowed), a dot, and an alphabetic TLD of two or more letters.
var candidateRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

// ValidCandidate reports whether s is exactly one label followed by a TLD.
func ValidCandidate(s string) bool {
	return candidateRE.MatchString(s)
}

// HasAllowedTLD reports whether s ends in one of AllowedTLDs, ignoring case.
func HasAllowedTLD(s string) bool {
	idx := strings.LastIndexByte(s, '.')
	if idx < 0 {
		return false
	}
	tld := strings.ToLower(s[idx+1:])
	for _, allowed := range AllowedTLDs {
		if tld == allowed {
			return true
		}
	}
	return false
}
