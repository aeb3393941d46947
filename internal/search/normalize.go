package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery canonicalizes a search query for matching against crate
// names: lowercase, accents stripped, `-`/`_` treated as word separators,
// whitespace collapsed.
func NormalizeQuery(query string) string {
	s := strings.ToLower(query)
	s = removeAccents(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// removeAccents strips diacritical marks (e.g., "é" becomes "e").
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
