package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (p *fakePublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestClassify(t *testing.T) {
	assert.Equal(t, EventError, Classify(3, errors.New("boom")))
	assert.Equal(t, EventZeroResult, Classify(0, nil))
	assert.Equal(t, EventSearch, Classify(2, nil))
}

func TestCollectorFlushesOnBatchSizeAndClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 100, 2, time.Hour)
	c.Start(context.Background())

	c.Track(SearchEvent{Query: "cat"})
	c.Track(SearchEvent{Query: "dog"})
	require.Eventually(t, func() bool { return pub.total() == 2 }, time.Second, 5*time.Millisecond)

	c.Track(SearchEvent{Query: "fox"})
	c.Close()
	assert.Equal(t, 3, pub.total())
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(&fakePublisher{}, 1, 10, time.Hour)
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	assert.Equal(t, int64(1), c.Dropped())
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	events := []SearchEvent{
		{Type: EventSearch, Query: "cat", PhraseMode: "exact", TotalResults: 2, LatencyMs: 10},
		{Type: EventSearch, Query: "cat", TotalResults: 2, LatencyMs: 20, CacheHit: true},
		{Type: EventZeroResult, Query: "zebra", PhraseMode: "stemmed", TotalResults: 0, LatencyMs: 30, MatchInTitle: true},
		{Type: EventError, Query: "dog"},
	}
	for _, e := range events {
		agg.Record(e)
	}

	stats := agg.Stats()
	assert.Equal(t, int64(4), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.Equal(t, int64(1), stats.TitleOnlyCount)
	assert.Equal(t, map[string]int64{"exact": 1, "disabled": 1, "stemmed": 1}, stats.PhraseModes)
	assert.InDelta(t, 20.0, stats.AvgLatencyMs, 1e-9)
	assert.Equal(t, int64(20), stats.P50LatencyMs)
	assert.Equal(t, int64(30), stats.P99LatencyMs)
	require.NotEmpty(t, stats.TopQueries)
	assert.Equal(t, QueryCount{Query: "cat", Count: 2}, stats.TopQueries[0])
	assert.Equal(t, []QueryCount{{Query: "zebra", Count: 1}}, stats.ZeroResultQueries)
}

func TestHandleEventSkipsGarbage(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	ctx := context.Background()

	require.NoError(t, handle(ctx, "search-analytics", nil, []byte("not json")))
	raw, _ := json.Marshal(SearchEvent{Type: EventSearch, Query: "cat", TotalResults: 1})
	require.NoError(t, handle(ctx, "search-analytics", nil, raw))
	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SearchEvent{Type: EventSearch, Query: "cat", TotalResults: 1})
	h := NewHandler(agg, nil)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.TotalSearches)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
