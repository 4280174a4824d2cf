package catalog

import (
	"strings"
	"unicode"
)

// Slugify lowercases name, turns spaces, hyphens and underscores into single
// hyphens and drops every other character that is not a letter, mark or
// digit.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}
