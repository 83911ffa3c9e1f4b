package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// searchFolder strips diacritics so "Élodie" matches "elodie".
var searchFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldForSearch lowercases and removes combining marks for accent-insensitive
// substring matching.
func foldForSearch(s string) string {
	folded, _, err := transform.String(searchFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func searchMatch(haystack, needle string) bool {
	return strings.Contains(foldForSearch(haystack), needle)
}
