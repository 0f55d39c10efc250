// Package searchtest builds a small in-memory corpus and a wired search
// engine for tests of the searcher packages.
package searchtest

import (
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/tokenizer"
)

const (
	DocA index.DocID = 100
	DocB index.DocID = 200
	DocC index.DocID = 300
)

const (
	widCat index.WordID = iota + 1
	widDog
	widFox
	widQuick
	widBrown
	widThe
)

func posting(idf float64, positions ...int) index.FullPosting {
	return index.FullPosting{TF: len(positions), DF: 1, TFNorm: 1, IDF: idf, Positions: index.NewPositions(positions...)}
}

// Store returns the corpus:
//
//	A "Pets"        body "our cat dog show"    cat@5 dog@6
//	B "Dog and cat" body "a dog then a cat"    dog@1 cat@4, title dog@0 cat@2
//	C "Fox"         body "the quick brown fox" quick@1 brown@2 fox@3, title fox@0
//
// Links run A->B and C->A.
func Store() *index.MemoryStore {
	s := index.NewMemoryStore()
	for word, wid := range map[string]index.WordID{
		"cat": widCat, "dog": widDog, "fox": widFox, "quick": widQuick, "brown": widBrown, "the": widThe,
	} {
		s.AddWord(word, wid)
	}

	s.SetFullPostings(widCat, index.FieldBody, index.FullPostings{DocA: posting(1, 5), DocB: posting(1, 4)})
	s.SetFullPostings(widDog, index.FieldBody, index.FullPostings{DocA: posting(1, 6), DocB: posting(1, 1)})
	s.SetFullPostings(widCat, index.FieldTitle, index.FullPostings{DocB: posting(1, 2)})
	s.SetFullPostings(widDog, index.FieldTitle, index.FullPostings{DocB: posting(1, 0)})
	s.SetFullPostings(widFox, index.FieldBody, index.FullPostings{DocC: posting(2, 3)})
	s.SetFullPostings(widFox, index.FieldTitle, index.FullPostings{DocC: posting(2, 0)})
	s.SetFullPostings(widQuick, index.FieldBody, index.FullPostings{DocC: posting(2, 1)})
	s.SetFullPostings(widBrown, index.FieldBody, index.FullPostings{DocC: posting(2, 2)})

	for _, v := range []index.Variant{index.BodyRawStemmed, index.BodyRawUnstemmed} {
		s.SetPositions(widThe, v, index.PositionPostings{DocC: index.NewPositions(0)})
		s.SetPositions(widQuick, v, index.PositionPostings{DocC: index.NewPositions(1)})
		s.SetPositions(widBrown, v, index.PositionPostings{DocC: index.NewPositions(2)})
		s.SetPositions(widFox, v, index.PositionPostings{DocC: index.NewPositions(3)})
	}

	s.AddDocument(DocA, index.DocumentMeta{
		URL: "https://example.com/a", Title: "Pets", Size: 16,
		LastModified:   time.Date(2023, 5, 14, 9, 30, 0, 0, time.UTC),
		DocumentWeight: 1, TitleWeight: 1, PageRankScore: 0.1,
	})
	s.AddDocument(DocB, index.DocumentMeta{
		URL: "https://example.com/b", Title: "Dog and cat", Size: 16,
		LastModified:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		DocumentWeight: 1, TitleWeight: 1, PageRankScore: 0.9,
	})
	s.AddDocument(DocC, index.DocumentMeta{
		URL: "https://example.com/c", Title: "Fox", Size: 19,
		LastModified:   time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC),
		DocumentWeight: 1, TitleWeight: 1, PageRankScore: 0.5,
	})
	s.AddLink(DocA, DocB)
	s.AddLink(DocC, DocA)

	s.SetKeywords(DocA, map[string]int{"cat": 1, "dog": 1, "show": 1})
	s.SetKeywords(DocB, map[string]int{"dog": 1, "cat": 1})
	s.SetKeywords(DocC, map[string]int{"quick": 1, "brown": 1, "fox": 1})

	s.SetBody(DocA, "our cat dog show")
	s.SetBody(DocB, "a dog then a cat")
	s.SetBody(DocC, "the quick brown fox")
	return s
}

func Analyzer() *tokenizer.Analyzer {
	return tokenizer.NewAnalyzer(
		tokenizer.StopwordSet{"the": {}, "a": {}, "and": {}, "then": {}, "our": {}},
		tokenizer.PorterStemmer{},
	)
}

func AssemblerConfig() assembler.Config {
	return assembler.Config{
		BodyWeight:     1,
		TitleWeight:    3,
		PageRankWeight: 0.2,
		SnippetResults: 5,
		SnippetLength:  200,
		MaxResults:     50,
		KeywordLimit:   5,
	}
}

// Engine wires an engine over store and releases it when t ends.
func Engine(t testing.TB, store index.Store, opts executor.Options) *executor.Engine {
	t.Helper()
	asm, err := assembler.New(store, AssemblerConfig(), 4)
	if err != nil {
		t.Fatalf("creating assembler: %v", err)
	}
	t.Cleanup(asm.Release)
	return executor.New(store, Analyzer(), asm, opts)
}
