// Package tokenizer turns query text into index terms: punctuation is
// stripped, text is lower-cased and split on whitespace, stopwords are
// filtered and the remaining words are stemmed with the same Porter rules
// the indexer used.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize removes every rune that is neither a word character
// ([A-Za-z0-9_]) nor ASCII whitespace, lower-cases the rest and splits it on
// space, tab, newline, carriage return and form feed. A vertical tab
// survives the strip but does not separate tokens. Non-ASCII spaces are
// stripped like punctuation. Empty tokens never appear.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || isSpaceRune(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.FieldsFunc(b.String(), IsSeparator)
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func isSpaceRune(r rune) bool {
	return r == '\v' || IsSeparator(r)
}

// IsSeparator reports whether r splits tokens.
func IsSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
