package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func (m *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type countingSearcher struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (s *countingSearcher) Search(_ context.Context, req executor.Request) (*executor.Response, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return &executor.Response{Query: req.Query, StemmedQuery: []string{"cat"}, TotalResults: 0}, nil
}

func TestQueryCacheHitAfterMiss(t *testing.T) {
	backend := newMemBackend()
	next := &countingSearcher{}
	c := New(next, backend, time.Minute, nil)
	ctx := context.Background()
	req := executor.Request{Query: "Cat", Distance: 1}

	_, cached, err := c.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, cached)

	resp, cached, err := c.Search(ctx, executor.Request{Query: "  cat ", Distance: 1})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []string{"cat"}, resp.StemmedQuery)
	assert.Equal(t, int64(1), next.calls.Load())
	assert.Equal(t, time.Minute, backend.ttl)

	stats := c.Stats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestQueryCacheKeyIncludesOptions(t *testing.T) {
	base := executor.Request{Query: "cat dog", Distance: 1}
	variants := []executor.Request{
		{Query: "cat dog", Distance: 2},
		{Query: "cat dog", Distance: 1, PhraseMode: executor.PhraseExact},
		{Query: "cat dog", Distance: 1, MatchInTitle: true},
		{Query: "cat dog", Distance: 1, WithPageRank: true},
		{Query: "cat dog", Distance: 1, ExcludeWords: "fox"},
		{Query: `"cat dog"`, Distance: 1},
	}
	for _, v := range variants {
		assert.NotEqual(t, BuildKey(base), BuildKey(v))
	}
	assert.Equal(t, BuildKey(base), BuildKey(executor.Request{Query: "CAT   dog", Distance: 1}))
}

// gatedSearcher holds every call until gate is closed or its context ends.
type gatedSearcher struct {
	gate  chan struct{}
	calls atomic.Int64
}

func (s *gatedSearcher) Search(ctx context.Context, req executor.Request) (*executor.Response, error) {
	s.calls.Add(1)
	select {
	case <-s.gate:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &executor.Response{Query: req.Query}, nil
}

func TestQueryCacheFlightSurvivesFirstCallerHangup(t *testing.T) {
	next := &gatedSearcher{gate: make(chan struct{})}
	c := New(next, newMemBackend(), time.Minute, nil)
	req := executor.Request{Query: "cat", Distance: 1}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Search(firstCtx, req)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		resp, _, err := c.Search(context.Background(), req)
		if err == nil && resp.Query != "cat" {
			err = errors.New("unexpected response")
		}
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(next.gate)
	require.NoError(t, <-secondErr)
	assert.Equal(t, int64(1), next.calls.Load())
}

func TestQueryCacheFlightTimeout(t *testing.T) {
	next := &gatedSearcher{gate: make(chan struct{})}
	c := New(next, nil, time.Minute, nil, WithFlightTimeout(10*time.Millisecond))

	_, _, err := c.Search(context.Background(), executor.Request{Query: "cat", Distance: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildKeyMatchesTokenization(t *testing.T) {
	base := BuildKey(executor.Request{Query: "cat dog", Distance: 1})
	assert.Equal(t, base, BuildKey(executor.Request{Query: "Cat\tDOG\n", Distance: 1}))
	// These tokenize differently, so they must not share a response.
	assert.NotEqual(t, base, BuildKey(executor.Request{Query: "cat\u00a0dog", Distance: 1}))
	assert.NotEqual(t, base, BuildKey(executor.Request{Query: "cat\vdog", Distance: 1}))
	assert.NotEqual(t,
		BuildKey(executor.Request{Query: "kat", Distance: 1}),
		BuildKey(executor.Request{Query: "\u212aat", Distance: 1}))
}

func TestQueryCacheCoalescesConcurrentMisses(t *testing.T) {
	next := &countingSearcher{delay: 50 * time.Millisecond}
	c := New(next, nil, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Search(context.Background(), executor.Request{Query: "cat", Distance: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, next.calls.Load(), int64(8))
}

func TestQueryCacheDoesNotStoreErrors(t *testing.T) {
	backend := newMemBackend()
	next := &countingSearcher{err: apperrors.ErrStoreUnavailable}
	c := New(next, backend, time.Minute, nil)

	_, _, err := c.Search(context.Background(), executor.Request{Query: "cat"})
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Empty(t, backend.data)
}

func TestQueryCacheInvalidate(t *testing.T) {
	backend := newMemBackend()
	c := New(&countingSearcher{}, backend, time.Minute, nil)
	ctx := context.Background()
	_, _, _ = c.Search(ctx, executor.Request{Query: "cat"})
	_, _, _ = c.Search(ctx, executor.Request{Query: "dog"})
	backend.data["other:key"] = []byte("keep")

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, backend.data, 1)

	require.NoError(t, c.InvalidationHandler()(ctx, "index.complete", nil, []byte(`{}`)))
}

func TestQueryCacheDisabled(t *testing.T) {
	next := &countingSearcher{}
	c := New(next, nil, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, cached, err := c.Search(ctx, executor.Request{Query: "cat"})
		require.NoError(t, err)
		assert.False(t, cached)
	}
	assert.Equal(t, int64(2), next.calls.Load())
	assert.False(t, c.Stats().Enabled)

	_, err := c.Invalidate(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrCacheDisabled))
	assert.NoError(t, c.InvalidationHandler()(ctx, "cache-invalidate", nil, nil))
}
