package model

import (
	"regexp"
	"strings"
)

var (
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern        = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	contactPhonePattern = regexp.MustCompile(`^[\d\s\-()+]+$`)
	orgCodePattern      = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidPhone checks the compact international form used by organization and
// visitor phone fields.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// ValidContactPhone checks the looser sign-up phone format: 4 to 15 digits,
// spaces, dashes, parentheses or plus signs.
func ValidContactPhone(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 4 && len(s) <= 15 && contactPhonePattern.MatchString(s)
}

// ValidOrganizationCode reports whether code is a six character uppercase
// alphanumeric join code.
func ValidOrganizationCode(code string) bool {
	return orgCodePattern.MatchString(code)
}
