package assembler

import (
	"strings"
	"unicode"
)

// Snippet returns up to length runes of body starting at the earliest
// case-insensitive occurrence of any of terms. Without an occurrence it
// returns the first length runes.
func Snippet(body string, terms []string, length int) string {
	runes := []rune(body)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	start := -1
	for _, term := range terms {
		if term == "" {
			continue
		}
		if i := runeIndex(lowered, []rune(strings.ToLower(term))); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func runeIndex(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
