package helpers

import (
	"strings"
	"unicode"
)

// Slugify derives a lowercase URL-safe identifier from a display name:
// letters and digits are kept, every other run of characters collapses
// into a single hyphen, and leading/trailing hyphens are trimmed.
// "Support Team" -> "support-team".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
