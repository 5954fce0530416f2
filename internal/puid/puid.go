// Package puid derives short problem identifiers from sources, so that
// "USAMO 2000/6" can be found by typing "usamo006".
package puid

import (
	"strings"
	"unicode"
)

// Infer returns the identifier for source: letters upper-cased, punctuation
// and spaces dropped, and four-digit years shortened to their last two
// digits.
func Infer(source string) string {
	var b strings.Builder

	for _, token := range tokens(source) {
		if isYear(token) {
			b.WriteString(token[2:])

			continue
		}

		b.WriteString(strings.ToUpper(token))
	}

	return b.String()
}

// tokens splits s into maximal runs of letters or of digits.
func tokens(s string) []string {
	var (
		out     []string
		current []rune
		digits  bool
	)

	flush := func() {
		if len(current) > 0 {
			out = append(out, string(current))
			current = current[:0]
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			if !digits {
				flush()
			}

			digits = true
			current = append(current, r)
		case unicode.IsLetter(r):
			if digits {
				flush()
			}

			digits = false
			current = append(current, r)
		default:
			flush()
		}
	}

	flush()

	return out
}

func isYear(token string) bool {
	if len(token) != 4 {
		return false
	}

	return strings.HasPrefix(token, "19") || strings.HasPrefix(token, "20")
}
