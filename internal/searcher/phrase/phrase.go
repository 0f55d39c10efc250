// Package phrase filters candidate documents down to those containing a
// phrase, allowing a bounded gap between consecutive phrase words.
package phrase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

type Options struct {
	// MatchInTitle restricts matching to titles. Otherwise a document
	// qualifies when either its title or its body holds the phrase.
	MatchInTitle bool
	Raw          bool
	StemForRaw   bool
	Distance     int
}

type Matcher struct {
	store  index.Store
	logger *slog.Logger
}

func NewMatcher(store index.Store) *Matcher {
	return &Matcher{
		store:  store,
		logger: slog.Default().With("component", "phrase-matcher"),
	}
}

// Match returns the documents holding terms as a phrase under opts. terms
// must already be normalised for the selected index variant.
func (m *Matcher) Match(ctx context.Context, terms []string, opts Options) (*index.DocSet, error) {
	if opts.MatchInTitle {
		return m.MatchField(ctx, terms, index.SelectVariant(index.FieldTitle, opts.Raw, opts.StemForRaw), opts.Distance)
	}

	var title, body *index.DocSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		title, err = m.MatchField(gctx, terms, index.SelectVariant(index.FieldTitle, opts.Raw, opts.StemForRaw), opts.Distance)
		return err
	})
	g.Go(func() error {
		var err error
		body, err = m.MatchField(gctx, terms, index.SelectVariant(index.FieldBody, opts.Raw, opts.StemForRaw), opts.Distance)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	title.Union(body)
	return title, nil
}

// MatchField runs the proximity filter against one positional index. A
// document survives word i only if some position of word i-1 is followed,
// within distance words, by a position of word i. Distances below 1 are
// treated as 1. A word whose record is malformed is skipped: the next word
// chains from the last readable one, with the window widened by distance for
// every skipped word.
func (m *Matcher) MatchField(ctx context.Context, terms []string, variant index.Variant, distance int) (*index.DocSet, error) {
	if distance < 1 {
		distance = 1
	}
	result := index.NewDocSet()
	if len(terms) == 0 {
		return result, nil
	}

	var survivors index.PositionPostings
	skipped := 0
	for _, term := range terms {
		wid, ok, err := m.store.WordID(ctx, term)
		if err != nil {
			return nil, err
		}
		if !ok {
			m.logger.Info("phrase term not indexed, phrase cannot match", "term", term, "variant", variant.String())
			return result, nil
		}

		postings, err := m.store.Positions(ctx, wid, variant)
		if errors.Is(err, apperrors.ErrMalformedPosting) {
			m.logger.Warn("skipping malformed phrase postings", "term", term, "variant", variant.String(), "error", err)
			skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			return result, nil
		}

		if survivors == nil {
			survivors = postings
			skipped = 0
			continue
		}
		window := distance * (skipped + 1)
		skipped = 0
		next := make(index.PositionPostings, len(survivors))
		for did, prev := range survivors {
			cur, ok := postings[did]
			if ok && follows(prev, cur, window) {
				next[did] = cur
			}
		}
		if len(next) == 0 {
			return result, nil
		}
		survivors = next
	}

	for did := range survivors {
		result.Add(did)
	}
	return result, nil
}

func follows(prev, cur index.Positions, distance int) bool {
	for p := range prev {
		for k := 1; k <= distance; k++ {
			if cur.Has(p + k) {
				return true
			}
		}
	}
	return false
}
