package helper

import (
	"strings"
	"unicode"
)

// Underscore converts a Go field name to snake_case, keeping acronyms
// together: "PublicationDate" -> "publication_date", "DOI" -> "doi".
func Underscore(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (nextLower && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Humanize turns a snake_case parameter name into words.
func Humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
