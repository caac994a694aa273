// Package textnorm folds free-form French labels (statuses, categories) into
// stable comparison keys.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var separatorRe = regexp.MustCompile(`[\s\-]+`)

// Key lower-cases s, strips accents and joins words with underscores:
// "RDV pris" -> "rdv_pris", "Télécom" -> "telecom".
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = StripDiacritics(s)
	return separatorRe.ReplaceAllString(s, "_")
}

// StripDiacritics decomposes s to NFD and drops the combining marks.
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Equal compares two labels after folding.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
