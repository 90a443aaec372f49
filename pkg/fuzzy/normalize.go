// Package fuzzy provides name normalization, near-duplicate detection, and
// merge grouping for free-text player-name submissions. Every function is
// pure and safe for concurrent use.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes to NFD and strips combining marks, so "Dončić"
// becomes "Doncic" before any further filtering.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

func normalize(s string, keepDigits bool) string {
	s, _, _ = transform.String(deaccent, s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if keepDigits {
				b.WriteRune(r)
			}
		case r == ' ' || unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Normalize canonicalizes a raw name for comparison: accents stripped,
// lowercased, punctuation removed, whitespace collapsed. Idempotent.
func Normalize(s string) string {
	return normalize(s, true)
}

// NormalizeStrict is Normalize with digits dropped as well, leaving only
// letters and spaces. Used for guess matching, where jersey numbers and
// years in an answer should not count against a guess.
func NormalizeStrict(s string) string {
	return normalize(s, false)
}
