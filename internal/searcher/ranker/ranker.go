package ranker

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

// Accumulator is the running similarity of one document against the query
// plus the positions each matched query term was found at.
type Accumulator struct {
	Score     float64
	Positions map[string]index.Positions
}

type Scores map[index.DocID]*Accumulator

type Scorer struct {
	store  index.Store
	logger *slog.Logger
}

func NewScorer(store index.Store) *Scorer {
	return &Scorer{
		store:  store,
		logger: slog.Default().With("component", "ranker"),
	}
}

// Score computes the cosine similarity between terms and every document of
// the field's tf-idf index. Each term contributes tfNorm*idf divided by the
// document's vector norm for that field; the total is divided by the query
// vector norm unless that norm is zero. A nil filter admits every document.
func (s *Scorer) Score(ctx context.Context, terms []string, field index.Field, filter *index.DocSet) (Scores, error) {
	scores := make(Scores)
	queryVector := make([]float64, len(terms))
	norms := make(map[index.DocID]float64)

	for i, term := range terms {
		wid, ok, err := s.store.WordID(ctx, term)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		postings, err := s.store.FullPostings(ctx, wid, field)
		if errors.Is(err, apperrors.ErrMalformedPosting) {
			s.logger.Warn("dropping malformed postings", "term", term, "field", field.String(), "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}
		queryVector[i] = termIDF(postings)

		for did, p := range postings {
			if filter != nil && !filter.Contains(did) {
				continue
			}
			norm, ok, err := s.documentNorm(ctx, did, field, norms)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			acc := scores[did]
			if acc == nil {
				acc = &Accumulator{Positions: make(map[string]index.Positions)}
				scores[did] = acc
			}
			acc.Score += termWeight(p.TFNorm, p.IDF) / norm
			pos := acc.Positions[term]
			if pos == nil {
				pos = make(index.Positions, len(p.Positions))
				acc.Positions[term] = pos
			}
			pos.Union(p.Positions)
		}
	}

	if length := vectorLength(queryVector); length > 0 {
		for _, acc := range scores {
			acc.Score /= length
		}
	}
	return scores, nil
}

// documentNorm returns the field's vector norm for did, memoised per query.
// Documents without metadata report ok=false; a non-positive stored norm
// falls back to 1.
func (s *Scorer) documentNorm(ctx context.Context, did index.DocID, field index.Field, memo map[index.DocID]float64) (float64, bool, error) {
	if norm, ok := memo[did]; ok {
		return norm, norm > 0, nil
	}
	meta, ok, err := s.store.DocumentMeta(ctx, did)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		s.logger.Debug("posting references unknown document", "doc_id", did)
		memo[did] = 0
		return 0, false, nil
	}
	norm := meta.DocumentWeight
	if field == index.FieldTitle {
		norm = meta.TitleWeight
	}
	if norm <= 0 {
		norm = 1
	}
	memo[did] = norm
	return norm, true, nil
}

// termIDF reads the idf from the lowest document id; idf is the same for
// every document of a term.
func termIDF(postings index.FullPostings) float64 {
	first := true
	var lowest index.DocID
	for did := range postings {
		if first || did < lowest {
			lowest, first = did, false
		}
	}
	return postings[lowest].IDF
}

func termWeight(tfNorm, idf float64) float64 {
	return tfNorm * idf
}

func vectorLength(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
