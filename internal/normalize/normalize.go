// Package normalize implements the canonical-form functions for names
// and document numbers. Both functions are pure, total, stateless, and
// idempotent.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks is an NFD-decompose / drop-combining-marks / recompose
// chain, used here for canonicalizing sanctioned-party names.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name canonicalizes a name: NFD-decompose, drop combining marks, replace
// any character outside letters/digits/whitespace with a single space,
// collapse whitespace runs, uppercase, trim. Empty and absent input both
// yield "".
func Name(s string) string {
	if s == "" {
		return ""
	}

	decomposed, _, err := transform.String(stripMarks, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	lastWasSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		default:
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// documentStripSet is the set of characters Document removes outright
// (whitespace is handled separately via unicode.IsSpace).
const documentStripSet = "-.,/"

// Document canonicalizes a document number: remove whitespace, hyphen,
// period, comma, forward-slash; uppercase. Empty input yields "".
func Document(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune(documentStripSet, r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
