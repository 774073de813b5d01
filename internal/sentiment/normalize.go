package sentiment

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and strips everything that is not a letter
// or whitespace. Stripped characters are removed outright, not replaced
// with a separator. It never fails; any input degrades to "" at worst.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
