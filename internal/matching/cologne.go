package matching

import (
	"strings"
)

var umlauts = strings.NewReplacer("ö", "oe", "ü", "ue", "ä", "ae", "ß", "ss")

// Encode returns the Cologne phonetic code of a word or phrase.
//
// Each whitespace-separated word is coded on its own, so letter context never
// crosses a word boundary. The per-word codes are concatenated before
// duplicate digits are collapsed and non-leading zeros removed.
func Encode(text string) string {
	prepared := umlauts.Replace(strings.ToLower(text))

	var raw strings.Builder
	for _, word := range strings.Fields(prepared) {
		encodeWord(&raw, []rune(word))
	}
	return collapse(raw.String())
}

func encodeWord(b *strings.Builder, word []rune) {
	for i, r := range word {
		var prev, next rune
		if i > 0 {
			prev = word[i-1]
		}
		if i+1 < len(word) {
			next = word[i+1]
		}
		b.WriteString(code(r, prev, next, i == 0))
	}
}

func code(r, prev, next rune, first bool) string {
	switch r {
	case 'a', 'e', 'i', 'j', 'o', 'u', 'y':
		return "0"
	case 'h':
		return ""
	case 'b':
		return "1"
	case 'p':
		if next == 'h' {
			return "3"
		}
		return "1"
	case 'd', 't':
		if oneOf(next, "csz") {
			return "8"
		}
		return "2"
	case 'f', 'v', 'w':
		return "3"
	case 'g', 'k', 'q':
		return "4"
	case 'l':
		return "5"
	case 'm', 'n':
		return "6"
	case 'r':
		return "7"
	case 's', 'z':
		return "8"
	case 'c':
		if first {
			if oneOf(next, "ahkloqrux") {
				return "4"
			}
			return "8"
		}
		if oneOf(next, "ahkoqux") && !oneOf(prev, "sz") {
			return "4"
		}
		return "8"
	case 'x':
		if oneOf(prev, "ckq") {
			return "8"
		}
		return "48"
	}
	return ""
}

func oneOf(r rune, set string) bool {
	return r != 0 && strings.ContainsRune(set, r)
}

// collapse squeezes runs of equal digits, then drops every zero except a leading one.
func collapse(raw string) string {
	if raw == "" {
		return ""
	}
	squeezed := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if i > 0 && raw[i] == raw[i-1] {
			continue
		}
		squeezed = append(squeezed, raw[i])
	}

	out := squeezed[:1]
	for _, c := range squeezed[1:] {
		if c != '0' {
			out = append(out, c)
		}
	}
	return string(out)
}
