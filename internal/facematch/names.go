package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips accent marks so "José" compares equal to "Jose".
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeName canonicalizes a display name for lookups: accents are
// removed, hyphens become spaces and the result is lowercased with
// surrounding whitespace trimmed.
func NormalizeName(name string) string {
	s := removeDiacritics(name)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ToLower(s)
	return strings.TrimSpace(s)
}
