package keywords

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer folds keywords and the text they are searched in to a common
// form. It must not trim: leading and trailing spaces in a keyword anchor it
// to a word boundary.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLowercaseASCII lowercases and strips accents (Amylose, amylosé -> amylose).
func NormalizeLowercaseASCII(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// NormalizeLowercase lowercases and keeps accents.
func NormalizeLowercase(s string) string {
	return strings.ToLower(s)
}

// NormalizeNone returns the text unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is lowercase.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "lowercase_ascii":
		return NormalizeLowercaseASCII
	case "lowercase", "lowercase_utf8":
		return NormalizeLowercase
	case "none":
		return NormalizeNone
	default:
		return NormalizeLowercase
	}
}
