package textnorm

import (
	"strings"
	"unicode"
)

// SplitCamelCase separates words fused without spaces, breaking wherever a
// lowercase letter is immediately followed by an uppercase one:
// "LeftVentricle" becomes "Left Ventricle". Runs of capitals stay together.
func SplitCamelCase(token string) string {
	var b strings.Builder
	b.Grow(len(token) + 4)
	prev := rune(-1)
	for _, r := range token {
		if prev >= 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
