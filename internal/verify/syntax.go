package verify

import (
	"regexp"
	"strings"
)

// emailPattern accepts a local part of 1-63 chars from the usual atom set
// (no leading or trailing dot), then dot-separated domain labels of 1-63
// alphanumeric/hyphen chars (no edge hyphens) ending in an alphabetic TLD of
// at least two chars. Deliberately narrower than RFC 5321: quoted locals,
// address literals and UTF-8 are rejected up front rather than probed.
var emailPattern = regexp.MustCompile(
	`^[A-Za-z0-9_%+-](?:[A-Za-z0-9._%+-]{0,61}[A-Za-z0-9_%+-])?` +
		`@(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,63}$`)

// ValidSyntax reports whether the address matches the accepted grammar.
// It is a pure pre-filter: no normalization, no network access.
func ValidSyntax(email string) bool {
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}

// domainOf extracts the lowercased domain part of an address. Callers are
// expected to have validated syntax first.
func domainOf(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
