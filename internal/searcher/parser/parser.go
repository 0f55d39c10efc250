package parser

import (
	"regexp"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/tokenizer"
)

var quotePattern = regexp.MustCompile(`"([^"]*)"`)

type ParsedQuery struct {
	Raw         string
	Terms       []string
	QuotedTerms []string
	HasQuote    bool
}

// Parse tokenizes the whole query into Terms and the first double-quoted
// span into QuotedTerms. Later quoted spans are treated as plain text.
func Parse(query string) *ParsedQuery {
	q := &ParsedQuery{
		Raw:         query,
		Terms:       tokenizer.Tokenize(query),
		QuotedTerms: []string{},
		HasQuote:    strings.Contains(query, `"`),
	}
	if m := quotePattern.FindStringSubmatch(query); m != nil {
		q.QuotedTerms = tokenizer.Tokenize(m[1])
	}
	return q
}

// QuoteAll makes the whole query the phrase when the user typed no quote
// at all. Title-only and raw phrase searches rely on it.
func (q *ParsedQuery) QuoteAll() {
	if q.HasQuote {
		return
	}
	q.QuotedTerms = append([]string(nil), q.Terms...)
}

func (q *ParsedQuery) HasPhrase() bool {
	return len(q.QuotedTerms) > 0
}
