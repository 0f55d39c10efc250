package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// StopwordSet is a set of lower-case stopwords.
type StopwordSet map[string]struct{}

// ParseStopwords reads whitespace separated words from r.
func ParseStopwords(r io.Reader) (StopwordSet, error) {
	set := make(StopwordSet)
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		if w := strings.ToLower(strings.TrimSpace(scanner.Text())); w != "" {
			set[w] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	return set, nil
}

// LoadStopwords loads the stopword file at path. A missing or unreadable
// file yields an empty set and a warning; it never fails startup.
func LoadStopwords(path string) StopwordSet {
	logger := slog.Default().With("component", "tokenizer")
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("stopwords unavailable, continuing without", "path", path, "error", err)
		return StopwordSet{}
	}
	defer f.Close()

	set, err := ParseStopwords(f)
	if err != nil {
		logger.Warn("stopwords unreadable, continuing without", "path", path, "error", err)
		return StopwordSet{}
	}
	logger.Info("stopwords loaded", "path", path, "count", len(set))
	return set
}

func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Filter drops stopwords, keeping the order of the rest.
func (s StopwordSet) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
