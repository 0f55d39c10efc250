package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/phrase"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/tracing"
)

type Request struct {
	Query        string                `json:"query"`
	PhraseMode   PhraseMode            `json:"phrase_mode"`
	MatchInTitle bool                  `json:"match_in_title"`
	WithPageRank bool                  `json:"page_rank"`
	Distance     int                   `json:"distance"`
	ExcludeWords string                `json:"exclude_words,omitempty"`
	Window       *assembler.DateWindow `json:"window,omitempty"`
}

type Response struct {
	Query        string             `json:"query"`
	Results      []assembler.Result `json:"results"`
	StemmedQuery []string           `json:"stemmed_query"`
	TotalResults int                `json:"total_results"`
	Elapsed      time.Duration      `json:"elapsed"`
}

type Options struct {
	QueryTimeout time.Duration
	Tracer       *tracing.Tracer
	Metrics      *metrics.Metrics
}

// Engine runs a query end to end: parse, normalise, phrase filter, score
// body and title, assemble.
type Engine struct {
	store     index.Store
	analyzer  *tokenizer.Analyzer
	matcher   *phrase.Matcher
	scorer    *ranker.Scorer
	assembler *assembler.Assembler
	opts      Options
	logger    *slog.Logger
}

func New(store index.Store, analyzer *tokenizer.Analyzer, asm *assembler.Assembler, opts Options) *Engine {
	return &Engine{
		store:     store,
		analyzer:  analyzer,
		matcher:   phrase.NewMatcher(store),
		scorer:    ranker.NewScorer(store),
		assembler: asm,
		opts:      opts,
		logger:    slog.Default().With("component", "query-executor"),
	}
}

func (e *Engine) Search(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	if e.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.QueryTimeout)
		defer cancel()
	}
	qctx := ctx
	ctx, span := e.opts.Tracer.StartSpan(ctx, "search", logger.RequestID(ctx))
	span.SetAttr("query", req.Query)
	span.SetAttr("phrase_mode", req.PhraseMode.String())
	defer func() {
		// Lookups abandoned at the query deadline report a timeout, whatever
		// layer noticed it first.
		if err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrTimeout) {
			err = fmt.Errorf("%w: query deadline exceeded: %w", apperrors.ErrTimeout, err)
		}
		if err != nil {
			span.SetError(err)
		}
		e.opts.Tracer.Finish(span)
		e.record(req, resp, err)
	}()

	parsed := parser.Parse(req.Query)
	raw := req.PhraseMode != PhraseDisabled
	stemForRaw := req.PhraseMode == PhraseStemmed
	if req.MatchInTitle || raw {
		parsed.QuoteAll()
	}

	terms := e.analyzer.Terms(parsed.Terms)
	if len(terms) == 0 {
		e.logger.Info("empty query after normalisation", "query", req.Query)
		return e.respond(req, terms, nil, start), nil
	}

	var filter *index.DocSet
	if parsed.HasPhrase() {
		if phraseTerms := e.phraseTerms(parsed.QuotedTerms, raw, stemForRaw); len(phraseTerms) > 0 {
			pctx, pspan := tracing.StartChildSpan(ctx, "phrase")
			filter, err = e.matcher.Match(pctx, phraseTerms, phrase.Options{
				MatchInTitle: req.MatchInTitle,
				Raw:          raw,
				StemForRaw:   stemForRaw,
				Distance:     req.Distance,
			})
			pspan.SetAttr("terms", phraseTerms)
			pspan.SetAttr("candidates", filter.Len())
			pspan.End()
			if err != nil {
				return nil, fmt.Errorf("matching phrase: %w", err)
			}
			if e.opts.Metrics != nil {
				e.opts.Metrics.PhraseCandidates.Observe(float64(filter.Len()))
			}
		}
	}

	exclude, err := e.excluded(ctx, req.ExcludeWords)
	if err != nil {
		return nil, fmt.Errorf("resolving excluded words: %w", err)
	}

	sctx, sspan := tracing.StartChildSpan(ctx, "score")
	var body, title ranker.Scores
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		body, err = e.scorer.Score(gctx, terms, index.FieldBody, filter)
		return err
	})
	g.Go(func() error {
		var err error
		title, err = e.scorer.Score(gctx, terms, index.FieldTitle, filter)
		return err
	})
	err = g.Wait()
	sspan.SetAttr("body_docs", len(body))
	sspan.SetAttr("title_docs", len(title))
	sspan.End()
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	actx, aspan := tracing.StartChildSpan(ctx, "assemble")
	results, err := e.assembler.Assemble(actx, assembler.Request{
		Body:         body,
		Title:        title,
		WithPageRank: req.WithPageRank,
		Window:       req.Window,
		Exclude:      exclude,
	})
	aspan.SetAttr("results", len(results))
	aspan.End()
	if err != nil {
		return nil, fmt.Errorf("assembling results: %w", err)
	}

	resp = e.respond(req, terms, results, start)
	e.logger.Debug("query executed",
		"query", req.Query,
		"terms", terms,
		"results", resp.TotalResults,
		"elapsed", resp.Elapsed,
	)
	return resp, nil
}

// phraseTerms normalises the quoted words for the index the phrase is
// matched against: exact indexes hold filtered stems, raw stemmed indexes
// keep stopwords, raw unstemmed indexes hold the words as typed.
func (e *Engine) phraseTerms(quoted []string, raw, stemForRaw bool) []string {
	switch {
	case !raw:
		return e.analyzer.Terms(quoted)
	case stemForRaw:
		return e.analyzer.Stems(quoted)
	default:
		return append([]string(nil), quoted...)
	}
}

// excluded collects the documents whose body or title exact index holds
// any of the normalised exclude words.
func (e *Engine) excluded(ctx context.Context, words string) (*index.DocSet, error) {
	terms := e.analyzer.Analyze(words)
	if len(terms) == 0 {
		return nil, nil
	}
	set := index.NewDocSet()
	for _, term := range terms {
		wid, ok, err := e.store.WordID(ctx, term)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, v := range []index.Variant{index.BodyExact, index.TitleExact} {
			postings, err := e.store.Positions(ctx, wid, v)
			if errors.Is(err, apperrors.ErrMalformedPosting) {
				e.logger.Warn("skipping malformed exclude postings", "term", term, "variant", v.String(), "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			for did := range postings {
				set.Add(did)
			}
		}
	}
	return set, nil
}

func (e *Engine) respond(req Request, terms []string, results []assembler.Result, start time.Time) *Response {
	if terms == nil {
		terms = []string{}
	}
	if results == nil {
		results = []assembler.Result{}
	}
	return &Response{
		Query:        req.Query,
		Results:      results,
		StemmedQuery: terms,
		TotalResults: len(results),
		Elapsed:      time.Since(start),
	}
}

func (e *Engine) record(req Request, resp *Response, err error) {
	if e.opts.Metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case resp.TotalResults == 0:
		outcome = "zero_result"
	}
	e.opts.Metrics.SearchQueriesTotal.WithLabelValues(req.PhraseMode.String(), outcome).Inc()
	if resp != nil {
		e.opts.Metrics.SearchResultsCount.Observe(float64(resp.TotalResults))
	}
}

// WordCount reports the size of the term dictionary.
func (e *Engine) WordCount(ctx context.Context) (int64, error) {
	return e.store.WordCount(ctx)
}

// Ping checks the index store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}
