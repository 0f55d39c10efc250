package tokenizer

import (
	"fmt"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball/english"
)

// Stemmer reduces a lower-case word to its stem. Implementations are pure
// and safe for concurrent use.
type Stemmer interface {
	Stem(word string) string
}

const (
	StemmerPorter  = "porter"
	StemmerPorter2 = "porter2"
)

// PorterStemmer applies the classic Porter algorithm, matching the indexer.
type PorterStemmer struct{}

func (PorterStemmer) Stem(word string) string {
	return porterstemmer.StemString(word)
}

// Porter2Stemmer applies the Snowball English (Porter2) algorithm.
type Porter2Stemmer struct{}

func (Porter2Stemmer) Stem(word string) string {
	return english.Stem(word, true)
}

func NewStemmer(name string) (Stemmer, error) {
	switch name {
	case "", StemmerPorter:
		return PorterStemmer{}, nil
	case StemmerPorter2:
		return Porter2Stemmer{}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}

// StemAll stems every token, keeping order.
func StemAll(s Stemmer, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = s.Stem(t)
	}
	return out
}
