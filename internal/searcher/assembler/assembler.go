// Package assembler turns body and title similarity scores into ranked,
// fully populated search results.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

type Config struct {
	BodyWeight     float64
	TitleWeight    float64
	PageRankWeight float64
	SnippetResults int
	SnippetLength  int
	MaxResults     int
	KeywordLimit   int
}

type Request struct {
	Body         ranker.Scores
	Title        ranker.Scores
	WithPageRank bool
	// Window drops documents modified outside it. Nil admits all.
	Window *DateWindow
	// Exclude drops the listed documents before any metadata is fetched.
	Exclude *index.DocSet
}

type Assembler struct {
	store  index.Store
	cfg    Config
	pool   *ants.Pool
	logger *slog.Logger
}

// New creates an Assembler whose per-document lookups run on a pool of
// workers goroutines shared by all queries.
func New(store index.Store, cfg Config, workers int) (*Assembler, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating assembly pool: %w", err)
	}
	return &Assembler{
		store:  store,
		cfg:    cfg,
		pool:   pool,
		logger: slog.Default().With("component", "assembler"),
	}, nil
}

// Release stops the worker pool. The Assembler must not be used afterwards.
func (a *Assembler) Release() {
	a.pool.Release()
}

type entry struct {
	did          index.DocID
	seq          int
	bodyScore    float64
	titleScore   float64
	wordPos      map[string][]int
	titleWordPos map[string][]int

	skip     bool
	result   Result
	pageRank float64
}

// Assemble combines the scores, populates every document once, ranks by
// descending score (ties keep insertion order: body matches first, then
// title-only matches, each by ascending id) and attaches snippets to the
// leading results.
func (a *Assembler) Assemble(ctx context.Context, req Request) ([]Result, error) {
	entries := a.collect(req)

	err := a.each(ctx, len(entries), func(i int) error {
		return a.populate(ctx, entries[i], req)
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]merger.Candidate, 0, len(entries))
	byID := make(map[index.DocID]*entry, len(entries))
	for _, e := range entries {
		if e.skip {
			continue
		}
		score := e.bodyScore*a.cfg.BodyWeight + e.titleScore*a.cfg.TitleWeight
		if req.WithPageRank {
			score += a.cfg.PageRankWeight * e.pageRank
		}
		e.result.Score = score
		byID[e.did] = e
		candidates = append(candidates, merger.Candidate{DocID: e.did, Score: score, Seq: e.seq})
	}

	ranked := merger.TopK(candidates, a.cfg.MaxResults)
	results := make([]Result, len(ranked))
	for i, c := range ranked {
		results[i] = byID[c.DocID].result
	}

	n := a.cfg.SnippetResults
	if n > len(results) {
		n = len(results)
	}
	err = a.each(ctx, n, func(i int) error {
		return a.attachSnippet(ctx, &results[i])
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Assembler) collect(req Request) []*entry {
	var entries []*entry
	seen := make(map[index.DocID]*entry)
	get := func(did index.DocID) *entry {
		if e, ok := seen[did]; ok {
			return e
		}
		e := &entry{did: did, seq: len(entries)}
		seen[did] = e
		entries = append(entries, e)
		return e
	}
	for _, did := range sortedIDs(req.Body) {
		if req.Exclude.Contains(did) {
			continue
		}
		e := get(did)
		e.bodyScore += req.Body[did].Score
		e.wordPos = positionMap(req.Body[did].Positions)
	}
	for _, did := range sortedIDs(req.Title) {
		if req.Exclude.Contains(did) {
			continue
		}
		e := get(did)
		e.titleScore += req.Title[did].Score
		e.titleWordPos = positionMap(req.Title[did].Positions)
	}
	return entries
}

func (a *Assembler) populate(ctx context.Context, e *entry, req Request) error {
	meta, ok, err := a.store.DocumentMeta(ctx, e.did)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Warn("skipping document without metadata", "doc_id", e.did)
		e.skip = true
		return nil
	}
	if !req.Window.Contains(meta.LastModified) {
		e.skip = true
		return nil
	}

	r := Result{
		Title:        meta.Title,
		URL:          meta.URL,
		Size:         meta.Size,
		WordPos:      e.wordPos,
		TitleWordPos: e.titleWordPos,
		DocID:        e.did,
		Modified:     meta.LastModified,
	}
	if !meta.LastModified.IsZero() {
		r.LastModified = meta.LastModified.Format(LastModifiedLayout)
	}

	parents, err := a.store.ParentIDs(ctx, e.did)
	if err != nil {
		return err
	}
	if r.ParentLinks, err = a.urls(ctx, parents); err != nil {
		return err
	}
	children, err := a.store.ChildIDs(ctx, e.did)
	if err != nil {
		return err
	}
	if r.ChildLinks, err = a.urls(ctx, children); err != nil {
		return err
	}

	kw, err := a.store.ForwardKeywords(ctx, e.did)
	if errors.Is(err, apperrors.ErrMalformedPosting) {
		a.logger.Warn("dropping malformed forward index header", "doc_id", e.did, "error", err)
		kw, err = map[string]int{}, nil
	}
	if err != nil {
		return err
	}
	r.Keywords = topKeywords(kw, a.cfg.KeywordLimit)

	if req.WithPageRank {
		if e.pageRank, err = a.pageRank(ctx, meta); err != nil {
			return err
		}
	}
	e.result = r
	return nil
}

// pageRank resolves the document again through its url, so the score
// belongs to whichever document currently owns that url.
func (a *Assembler) pageRank(ctx context.Context, meta index.DocumentMeta) (float64, error) {
	did, ok, err := a.store.DocIDOfURL(ctx, meta.URL)
	if err != nil || !ok {
		return 0, err
	}
	owner, ok, err := a.store.DocumentMeta(ctx, did)
	if err != nil || !ok {
		return 0, err
	}
	return owner.PageRankScore, nil
}

func (a *Assembler) urls(ctx context.Context, ids []index.DocID) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		url, ok, err := a.store.URLOfDocID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, url)
		}
	}
	return out, nil
}

func (a *Assembler) attachSnippet(ctx context.Context, r *Result) error {
	body, ok, err := a.store.RawBody(ctx, r.DocID)
	if err != nil || !ok {
		return err
	}
	terms := make([]string, 0, len(r.WordPos))
	for term := range r.WordPos {
		terms = append(terms, term)
	}
	r.Body = Snippet(body, terms, a.cfg.SnippetLength)
	return nil
}

// each runs fn(0..n-1) on the pool and returns the first error.
func (a *Assembler) each(ctx context.Context, n int, fn func(i int) error) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := fn(i); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			record(fmt.Errorf("submitting assembly task: %w", err))
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func sortedIDs(scores ranker.Scores) []index.DocID {
	ids := make([]index.DocID, 0, len(scores))
	for did := range scores {
		ids = append(ids, did)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
