// Package normalize provides text normalization for matching and search.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after canonical decomposition, so
// "Équação" folds to "equacao". Transformers are not safe for concurrent
// use; build one per call.
func foldTransformer() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold lowercases s and removes diacritics, producing a form suitable for
// case- and accent-insensitive substring matching. Input that fails to
// transform (invalid UTF-8) falls back to plain lowercasing.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer(), s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// FoldContains reports whether haystack contains needle under Fold
// normalization.
func FoldContains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
