package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/redis"
)

const keyPrefix = "search:"

// Backend is the key-value store holding cached responses. *pkgredis.Client
// satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Searcher interface {
	Search(ctx context.Context, req executor.Request) (*executor.Response, error)
}

type Stats struct {
	Enabled    bool    `json:"enabled"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalConns uint32  `json:"total_conns,omitempty"`
	IdleConns  uint32  `json:"idle_conns,omitempty"`
}

// QueryCache fronts a Searcher with a response cache. Concurrent identical
// queries are coalesced so only one reaches the engine. A nil backend
// disables caching but keeps coalescing.
type QueryCache struct {
	next    Searcher
	backend Backend
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64

	flightTimeout time.Duration
}

type Option func(*QueryCache)

// WithFlightTimeout bounds a coalesced engine call. The call outlives the
// caller that started it, so it needs its own deadline.
func WithFlightTimeout(d time.Duration) Option {
	return func(c *QueryCache) {
		c.flightTimeout = d
	}
}

func New(next Searcher, backend Backend, ttl time.Duration, m *metrics.Metrics, opts ...Option) *QueryCache {
	c := &QueryCache{
		next:    next,
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *QueryCache) Enabled() bool {
	return c.backend != nil
}

// Search answers from the cache when possible. cached reports whether the
// response came from the cache.
func (c *QueryCache) Search(ctx context.Context, req executor.Request) (resp *executor.Response, cached bool, err error) {
	start := time.Now()
	defer func() {
		if c.metrics == nil || err != nil {
			return
		}
		status := "miss"
		if cached {
			status = "hit"
		}
		c.metrics.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	key := BuildKey(req)
	if resp, ok := c.get(ctx, key); ok {
		return resp, true, nil
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Detached from the first caller: its hang-up must not fail the
		// others waiting on the same key.
		fctx := context.WithoutCancel(ctx)
		if c.flightTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.flightTimeout)
			defer cancel()
		}
		resp, err := c.next.Search(fctx, req)
		if err != nil {
			return nil, err
		}
		c.set(fctx, key, resp)
		return resp, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*executor.Response), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *QueryCache) get(ctx context.Context, key string) (*executor.Response, bool) {
	if c.backend == nil {
		return nil, false
	}
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var resp executor.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &resp, true
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) set(ctx context.Context, key string, resp *executor.Response) {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached response.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	if c.backend == nil {
		return 0, apperrors.ErrCacheDisabled
	}
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{Enabled: c.Enabled(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	if ps, ok := c.backend.(interface{ PoolStats() *goredis.PoolStats }); ok {
		if pool := ps.PoolStats(); pool != nil {
			s.TotalConns = pool.TotalConns
			s.IdleConns = pool.IdleConns
		}
	}
	return s
}

// BuildKey hashes the normalised request. Queries differing only in ASCII
// case or in the whitespace the tokenizer splits on share a key; every
// option is part of it.
func BuildKey(req executor.Request) string {
	norm := req
	norm.Query = normalize(req.Query)
	norm.ExcludeWords = normalize(req.ExcludeWords)
	raw, _ := json.Marshal(norm)
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalize(text string) string {
	fields := strings.FieldsFunc(text, tokenizer.IsSeparator)
	for i, f := range fields {
		fields[i] = strings.Map(asciiLower, f)
	}
	return strings.Join(fields, " ")
}

func asciiLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
