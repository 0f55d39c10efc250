package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"punctuation stripped", "Hello, World!", []string{"hello", "world"}},
		{"apostrophes join", "don't stop", []string{"dont", "stop"}},
		{"underscore and digits kept", "HTTP_2 in 2024", []string{"http_2", "in", "2024"}},
		{"mixed whitespace", "a\tb\n\nc  d", []string{"a", "b", "c", "d"}},
		{"only punctuation", "?!...", []string{}},
		{"empty", "", []string{}},
		{"hyphen joins", "state-of-the-art", []string{"stateoftheart"}},
		{"quotes removed", `"hong kong" university`, []string{"hong", "kong", "university"}},
		{"no-break space stripped", "foo\u00a0bar", []string{"foobar"}},
		{"em space stripped", "foo\u2003bar baz", []string{"foobar", "baz"}},
		{"vertical tab kept inside token", "a\vb c", []string{"a\vb", "c"}},
		{"form feed separates", "a\fb\rc", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStopwordFilterPreservesOrder(t *testing.T) {
	set, err := ParseStopwords(strings.NewReader("the\nA  of\n"))
	require.NoError(t, err)
	assert.Len(t, set, 3)
	assert.Equal(t, []string{"quick", "fox", "tales"}, set.Filter([]string{"the", "quick", "fox", "of", "tales", "a"}))
}

func TestLoadStopwordsFailsOpen(t *testing.T) {
	set := LoadStopwords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.NotNil(t, set)
	assert.Empty(t, set)
	assert.Equal(t, []string{"the", "cat"}, set.Filter([]string{"the", "cat"}))
}

func TestLoadStopwordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.txt")
	require.NoError(t, os.WriteFile(path, []byte("The\nand\n"), 0o644))
	set := LoadStopwords(path)
	assert.True(t, set.Contains("the"))
	assert.True(t, set.Contains("and"))
	assert.False(t, set.Contains("cat"))
}

func TestPorterStemmer(t *testing.T) {
	vectors := map[string]string{
		"caresses":   "caress",
		"ponies":     "poni",
		"cats":       "cat",
		"running":    "run",
		"hopping":    "hop",
		"happy":      "happi",
		"relational": "relat",
		"computer":   "comput",
		"searching":  "search",
	}
	s := PorterStemmer{}
	for in, want := range vectors {
		assert.Equal(t, want, s.Stem(in), in)
	}
}

func TestPorter2Stemmer(t *testing.T) {
	s := Porter2Stemmer{}
	assert.Equal(t, "run", s.Stem("running"))
	assert.Equal(t, "cat", s.Stem("cats"))
	assert.Equal(t, "generous", s.Stem("generously"))
}

func TestNewStemmer(t *testing.T) {
	s, err := NewStemmer("")
	require.NoError(t, err)
	assert.IsType(t, PorterStemmer{}, s)

	s, err = NewStemmer("porter2")
	require.NoError(t, err)
	assert.IsType(t, Porter2Stemmer{}, s)

	_, err = NewStemmer("lancaster")
	assert.Error(t, err)
}

func TestAnalyzer(t *testing.T) {
	a := NewAnalyzer(StopwordSet{"the": {}, "of": {}}, PorterStemmer{})
	assert.Equal(t, []string{"univers", "hong", "kong"}, a.Analyze("The University of Hong Kong"))
	assert.Equal(t, []string{"the", "univers", "of"}, a.Stems([]string{"the", "university", "of"}))
}

func BenchmarkAnalyze(b *testing.B) {
	a := NewAnalyzer(StopwordSet{"the": {}, "and": {}, "of": {}}, PorterStemmer{})
	text := strings.Repeat("The quick brown foxes jumped over the lazy dogs and running cats. ", 20)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		a.Analyze(text)
	}
}
