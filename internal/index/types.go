// Package index defines the read-only lookup surface over the prebuilt web
// index: the word dictionary, positional and tf-idf postings for every index
// variant, per-document metadata, the link graph, forward-index keyword
// headers and raw bodies.
package index

import (
	"context"
	"fmt"
	"time"
)

// DocID identifies a crawled document. WordID identifies a dictionary word.
type (
	DocID  int64
	WordID int64
)

// Field selects the body or title half of the index.
type Field int

const (
	FieldBody Field = iota
	FieldTitle
)

func (f Field) String() string {
	if f == FieldTitle {
		return "title"
	}
	return "body"
}

// Variant names one positional index. Exact indexes hold stemmed words with
// stopwords removed. RawStemmed indexes hold stemmed words with stopwords
// kept and positions over the full text. RawUnstemmed indexes hold the words
// as written, stopwords kept.
type Variant int

const (
	BodyExact Variant = iota
	BodyRawStemmed
	BodyRawUnstemmed
	TitleExact
	TitleRawStemmed
	TitleRawUnstemmed
)

var variantNames = [...]string{
	BodyExact:         "body_exact",
	BodyRawStemmed:    "body_raw_stemmed",
	BodyRawUnstemmed:  "body_raw_unstemmed",
	TitleExact:        "title_exact",
	TitleRawStemmed:   "title_raw_stemmed",
	TitleRawUnstemmed: "title_raw_unstemmed",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Field reports which half of the document the variant covers.
func (v Variant) Field() Field {
	if v >= TitleExact {
		return FieldTitle
	}
	return FieldBody
}

// SelectVariant maps the phrase flags onto a positional index. raw selects
// the stopword-preserving indexes; stemForRaw picks the stemmed one of those.
func SelectVariant(field Field, raw, stemForRaw bool) Variant {
	base := BodyExact
	if field == FieldTitle {
		base = TitleExact
	}
	switch {
	case raw && stemForRaw:
		return base + 1
	case raw:
		return base + 2
	default:
		return base
	}
}

// Positions is the set of word offsets at which a term occurs in a document.
type Positions map[int]struct{}

func NewPositions(offsets ...int) Positions {
	p := make(Positions, len(offsets))
	for _, o := range offsets {
		p[o] = struct{}{}
	}
	return p
}

func (p Positions) Has(offset int) bool {
	_, ok := p[offset]
	return ok
}

// FullPosting is one document's entry in a tf-idf postings record.
type FullPosting struct {
	TF        int
	DF        int
	TFNorm    float64
	IDF       float64
	Positions Positions
}

// PositionPostings maps documents to the offsets of one term.
type PositionPostings map[DocID]Positions

// FullPostings maps documents to the tf-idf entry of one term.
type FullPostings map[DocID]FullPosting

// DocumentMeta is the per-document row of the url list.
type DocumentMeta struct {
	URL            string
	Title          string
	LastModified   time.Time
	Size           int
	DocumentWeight float64
	TitleWeight    float64
	PageRankScore  float64
}

// Store is the lookup contract the ranking core consumes. Lookups that find
// nothing return ok=false or an empty value, never an error; errors are
// reserved for transport failures and undecodable records.
type Store interface {
	WordID(ctx context.Context, word string) (WordID, bool, error)
	Positions(ctx context.Context, wid WordID, variant Variant) (PositionPostings, error)
	FullPostings(ctx context.Context, wid WordID, field Field) (FullPostings, error)
	DocumentMeta(ctx context.Context, did DocID) (DocumentMeta, bool, error)
	DocIDOfURL(ctx context.Context, url string) (DocID, bool, error)
	URLOfDocID(ctx context.Context, did DocID) (string, bool, error)
	ParentIDs(ctx context.Context, did DocID) ([]DocID, error)
	ChildIDs(ctx context.Context, did DocID) ([]DocID, error)
	ForwardKeywords(ctx context.Context, did DocID) (map[string]int, error)
	RawBody(ctx context.Context, did DocID) (string, bool, error)
	WordCount(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
