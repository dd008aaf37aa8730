// Package dedup reduces listing titles to canonical application keys and
// tracks the best known download links per key.
package dedup

import (
	"regexp"
	"strings"
)

var (
	// reVersion accepts strict dotted numbers only: "6", "6.4.2".
	reVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

	// reSuffix accepts alphanumeric runs with optional dot/hyphen segments.
	// A digit is required separately so "Pro" survives and "Pro-2" does not.
	reSuffix = regexp.MustCompile(`^[A-Za-z0-9]+([.\-][A-Za-z0-9]+)*$`)
)

// Version returns the title's trailing version token, or "" when the last
// whitespace-delimited token is not a strict dotted number.
func Version(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if reVersion.MatchString(last) {
		return last
	}
	return ""
}

// Key returns the canonical application key for a display title: trailing
// version-like tokens removed, single-spaced, lower-cased.
//
// Stripping repeats until the last token is no longer version-like, so
// Key(Key(t)) == Key(t). The first token is never stripped: a title that is
// only a number ("2048") keeps it.
func Key(title string) string {
	fields := strings.Fields(title)
	for len(fields) > 1 && isVersionSuffix(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.ToLower(strings.Join(fields, " "))
}

func isVersionSuffix(token string) bool {
	return reSuffix.MatchString(token) && strings.ContainsAny(token, "0123456789")
}
