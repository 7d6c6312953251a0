// Package textutil provides the text normalization and approximate
// matching used to interpret free-text chat input.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases text, strips diacritics and collapses whitespace.
// It is total and idempotent, so keyword comparisons never miss on
// accent or case drift ("Tinte Baño" -> "tinte bano").
func Normalize(text string) string {
	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Removal transforms only fail on malformed input; keep the
		// original text rather than dropping the message.
		stripped = text
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Digits returns only the decimal digits of s. Used to compare phone
// numbers regardless of spaces, dashes or country-code prefixes.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
