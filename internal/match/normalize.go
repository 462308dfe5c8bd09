package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritic marks so "Pokémon" and "Pokemon"
// normalize identically.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize prepares text for alias matching: fold diacritics, lowercase,
// drop everything but letters, digits and underscores, collapse whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder

	b.Grow(len(folded))

	lastSpace := true

	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)

			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
			}

			lastSpace = true
		default:
			// Punctuation and symbols are dropped entirely
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// containsWord reports whether needle occurs in haystack at word
// boundaries. Both arguments must already be normalized, so a boundary is
// a space or a string edge.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}

	idx := 0

	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}

		start := idx + i
		end := start + len(needle)

		startOK := start == 0 || haystack[start-1] == ' '
		endOK := end == len(haystack) || haystack[end] == ' '

		if startOK && endOK {
			return true
		}

		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

// firstWords returns up to n leading words of a normalized string.
func firstWords(s string, n int) string {
	words := strings.Split(s, " ")
	if len(words) <= n {
		return s
	}

	return strings.Join(words[:n], " ")
}
