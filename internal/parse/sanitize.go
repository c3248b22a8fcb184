package parse

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize normalizes scraped text: NFC unicode normalization, whitespace
// collapse, and removal of control or symbol junk that operator sites mix
// into names. Basic punctuation survives.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune("-.,()&/:+", r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
