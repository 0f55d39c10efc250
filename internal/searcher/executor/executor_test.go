package executor_test

import (
	"context"
	"math"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/searchtest"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/tracing"
)

func search(t *testing.T, e *executor.Engine, req executor.Request) *executor.Response {
	t.Helper()
	if req.Distance == 0 {
		req.Distance = 1
	}
	resp, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func docIDs(resp *executor.Response) []index.DocID {
	out := make([]index.DocID, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.DocID
	}
	return out
}

func TestQuotedPhraseAdjacent(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: `"cat dog"`})

	require.Equal(t, []index.DocID{searchtest.DocA}, docIDs(resp))
	assert.InDelta(t, 2/math.Sqrt(2), resp.Results[0].Score, 1e-9)
	assert.Equal(t, []string{"cat", "dog"}, resp.StemmedQuery)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestQuotedPhraseGapDoesNotMatch(t *testing.T) {
	s := searchtest.Store()
	s.SetFullPostings(2, index.FieldBody, index.FullPostings{
		searchtest.DocA: {TF: 1, DF: 2, TFNorm: 1, IDF: 1, Positions: index.NewPositions(7)},
		searchtest.DocB: {TF: 1, DF: 2, TFNorm: 1, IDF: 1, Positions: index.NewPositions(1)},
	})
	e := searchtest.Engine(t, s, executor.Options{})

	phrased := search(t, e, executor.Request{Query: `"cat dog"`, Distance: 1})
	assert.Empty(t, phrased.Results)

	clamped := search(t, e, executor.Request{Query: `"cat dog"`, Distance: -3})
	assert.Empty(t, clamped.Results)

	unrestricted := search(t, e, executor.Request{Query: "cat dog"})
	assert.Contains(t, docIDs(unrestricted), searchtest.DocA)

	wider := search(t, e, executor.Request{Query: `"cat dog"`, Distance: 2})
	assert.Equal(t, []index.DocID{searchtest.DocA}, docIDs(wider))
}

func TestUnquotedQueryCombinesBodyAndTitle(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: "cat dog"})

	require.Equal(t, []index.DocID{searchtest.DocB, searchtest.DocA}, docIDs(resp))
	assert.InDelta(t, 4*math.Sqrt(2), resp.Results[0].Score, 1e-9)
	assert.InDelta(t, math.Sqrt(2), resp.Results[1].Score, 1e-9)
	assert.Equal(t, []string{"https://example.com/a"}, resp.Results[0].ParentLinks)
	assert.Equal(t, []string{"https://example.com/b"}, resp.Results[1].ChildLinks)
	assert.Equal(t, "cat dog show", resp.Results[1].Body)
}

func TestEmptyAndStopwordOnlyQueries(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	for _, q := range []string{"", "   ", "?!", "the and"} {
		resp := search(t, e, executor.Request{Query: q})
		assert.Empty(t, resp.Results, q)
		assert.NotNil(t, resp.Results)
		assert.Zero(t, resp.TotalResults)
	}
}

func TestUnknownTermIsIgnored(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	with := search(t, e, executor.Request{Query: "fox unicorn"})
	without := search(t, e, executor.Request{Query: "fox"})

	require.Equal(t, docIDs(without), docIDs(with))
	assert.InDelta(t, without.Results[0].Score, with.Results[0].Score, 1e-12)
	assert.Equal(t, []string{"fox", "unicorn"}, with.StemmedQuery)
}

func TestPhraseWithUnknownTermMatchesNothing(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: `"cat unicorn"`})
	assert.Empty(t, resp.Results)
}

func TestSearchIsIdempotent(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	req := executor.Request{Query: "cat dog fox", WithPageRank: true}
	first := search(t, e, req)
	second := search(t, e, req)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].DocID, second.Results[i].DocID)
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
		assert.Equal(t, first.Results[i].Body, second.Results[i].Body)
	}
}

func TestScoresAreNonNegativeAndNonIncreasing(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	for _, q := range []string{"cat", "cat dog fox", "quick brown fox", "dog"} {
		resp := search(t, e, executor.Request{Query: q, WithPageRank: true})
		for i, r := range resp.Results {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			if i > 0 {
				assert.LessOrEqual(t, r.Score, resp.Results[i-1].Score, q)
			}
		}
	}
}

func TestSnippetStartsAtMatchedTerm(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: "fox"})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "fox", resp.Results[0].Body)
	assert.InDelta(t, 4.0, resp.Results[0].Score, 1e-9)
}

func TestRawPhraseModes(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})

	exact := search(t, e, executor.Request{Query: "the quick", PhraseMode: executor.PhraseExact})
	assert.Equal(t, []index.DocID{searchtest.DocC}, docIDs(exact))
	assert.Equal(t, []string{"quick"}, exact.StemmedQuery)

	stemmed := search(t, e, executor.Request{Query: "the quick", PhraseMode: executor.PhraseStemmed})
	assert.Equal(t, []index.DocID{searchtest.DocC}, docIDs(stemmed))

	outOfOrder := search(t, e, executor.Request{Query: "quick the", PhraseMode: executor.PhraseExact})
	assert.Empty(t, outOfOrder.Results)
}

func TestMatchInTitleQuotesWholeQuery(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})

	tight := search(t, e, executor.Request{Query: "dog cat", MatchInTitle: true, Distance: 1})
	assert.Empty(t, tight.Results)

	loose := search(t, e, executor.Request{Query: "dog cat", MatchInTitle: true, Distance: 2})
	assert.Equal(t, []index.DocID{searchtest.DocB}, docIDs(loose))
}

func TestExcludeWords(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: "cat fox", ExcludeWords: "Dogs!"})
	assert.Equal(t, []index.DocID{searchtest.DocC}, docIDs(resp))
}

func TestDateWindow(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{
		Query: "cat dog",
		Window: &assembler.DateWindow{
			Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	})
	assert.Equal(t, []index.DocID{searchtest.DocA}, docIDs(resp))
}

func TestPageRankBlending(t *testing.T) {
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{})
	resp := search(t, e, executor.Request{Query: "cat dog", WithPageRank: true})
	require.Len(t, resp.Results, 2)
	assert.InDelta(t, 4*math.Sqrt(2)+0.2*0.9, resp.Results[0].Score, 1e-9)
	assert.InDelta(t, math.Sqrt(2)+0.2*0.1, resp.Results[1].Score, 1e-9)
}

func TestStoreFailureSurfaces(t *testing.T) {
	s := searchtest.Store()
	s.SetFailure(apperrors.ErrStoreUnavailable)
	e := searchtest.Engine(t, s, executor.Options{})

	_, err := e.Search(context.Background(), executor.Request{Query: "cat", Distance: 1})
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestSearchRecordsMetricsAndTraces(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	e := searchtest.Engine(t, searchtest.Store(), executor.Options{
		Metrics: m,
		Tracer:  tracing.NewTracer(true, 1),
	})
	search(t, e, executor.Request{Query: `"cat dog"`})
	search(t, e, executor.Request{Query: "unicorn"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("disabled", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("disabled", "zero_result")))
}

func TestParsePhraseMode(t *testing.T) {
	assert.Equal(t, executor.PhraseStemmed, executor.ParsePhraseMode("1"))
	assert.Equal(t, executor.PhraseExact, executor.ParsePhraseMode("2"))
	assert.Equal(t, executor.PhraseDisabled, executor.ParsePhraseMode("0"))
	assert.Equal(t, executor.PhraseDisabled, executor.ParsePhraseMode("bogus"))
	assert.Equal(t, "2", executor.PhraseExact.Wire())
}

func BenchmarkSearch(b *testing.B) {
	e := searchtest.Engine(b, searchtest.Store(), executor.Options{})
	ctx := context.Background()
	req := executor.Request{Query: "cat dog fox", Distance: 1, WithPageRank: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Search(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

// stallingStore holds WordID until the lookup context is done while stall is
// set.
type stallingStore struct {
	index.Store
	stall atomic.Bool
}

func (s *stallingStore) WordID(ctx context.Context, word string) (index.WordID, bool, error) {
	if s.stall.Load() {
		<-ctx.Done()
		return 0, false, ctx.Err()
	}
	return s.Store.WordID(ctx, word)
}

func TestQueryTimeoutLeavesBreakerClosed(t *testing.T) {
	slow := &stallingStore{Store: searchtest.Store()}
	slow.stall.Store(true)
	store := index.NewResilientStore(slow, config.ResilienceConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
		MaxAttempts:      1,
	}, time.Second)
	e := searchtest.Engine(t, store, executor.Options{QueryTimeout: 20 * time.Millisecond})

	for i := 0; i < 2; i++ {
		_, err := e.Search(context.Background(), executor.Request{Query: "cat dog", Distance: 1})
		require.ErrorIs(t, err, apperrors.ErrTimeout)
		assert.NotErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatusCode(err))
	}
	assert.Equal(t, resilience.StateClosed, store.BreakerState())

	slow.stall.Store(false)
	resp := search(t, e, executor.Request{Query: "cat"})
	assert.ElementsMatch(t, []index.DocID{searchtest.DocA, searchtest.DocB}, docIDs(resp))
}

func TestQueryTimeoutWithoutResilienceReportsTimeout(t *testing.T) {
	slow := &stallingStore{Store: searchtest.Store()}
	slow.stall.Store(true)
	e := searchtest.Engine(t, slow, executor.Options{QueryTimeout: 10 * time.Millisecond})

	_, err := e.Search(context.Background(), executor.Request{Query: "fox", Distance: 1})
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
