// Package matching decides whether a free-text answer is equivalent to an
// expected one, tolerating case, diacritics, punctuation and German spelling
// variants that sound alike.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text into a lowercase, hyphen-separated slug.
//
// Characters without a Latin decomposition (ø, ł, ß, non-Latin scripts) are
// dropped rather than transliterated. Normalize is idempotent.
func Normalize(text string) string {
	decomposed, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), text)
	if err != nil {
		decomposed = text
	}
	lowered := strings.ToLower(decomposed)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	// Whitespace runs become one hyphen, hyphen runs collapse, edges are trimmed.
	words := strings.Fields(b.String())
	joined := strings.Join(words, "-")

	var out strings.Builder
	out.Grow(len(joined))
	prevHyphen := false
	for _, r := range joined {
		if r == '-' {
			if prevHyphen {
				continue
			}
			prevHyphen = true
		} else {
			prevHyphen = false
		}
		out.WriteRune(r)
	}
	return strings.Trim(out.String(), "-")
}
