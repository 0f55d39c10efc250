package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/middleware"
)

// IndexStats is the slice of the engine used by /api/check-db.
type IndexStats interface {
	WordCount(ctx context.Context) (int64, error)
}

// Tracker receives one event per answered search. *analytics.Collector
// satisfies it.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Handler struct {
	cache           *cache.QueryCache
	index           IndexStats
	tracker         Tracker
	defaultDistance int
	now             func() time.Time
	logger          *slog.Logger
}

// New builds the handler. queryCache wraps the engine and may run with
// caching disabled; tracker may be nil.
func New(queryCache *cache.QueryCache, idx IndexStats, tracker Tracker, defaultDistance int) *Handler {
	if defaultDistance < 1 {
		defaultDistance = 1
	}
	return &Handler{
		cache:           queryCache,
		index:           idx,
		tracker:         tracker,
		defaultDistance: defaultDistance,
		now:             time.Now,
		logger:          slog.Default().With("component", "search-handler"),
	}
}

// SearchResponse is the /api/search body for a non-empty query.
type SearchResponse struct {
	Query        string             `json:"query"`
	Results      []assembler.Result `json:"results"`
	Time         string             `json:"time"`
	Options      Options            `json:"options"`
	StemmedQuery []string           `json:"stemmed_query"`
	TotalResults int                `json:"total_results"`
	History      []string           `json:"history"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query()
	opts := readOptions(q, h.defaultDistance)
	query := q.Get("query")
	if query == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"history": []string{},
			"options": opts,
		})
		return
	}

	req, err := opts.request(query, h.defaultDistance, h.now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, cached, err := h.cache.Search(ctx, req)
	elapsed := time.Since(start)
	h.track(ctx, req, resp, cached, elapsed, err)
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}

	log.Info("search completed",
		"query", query,
		"phrase_mode", req.PhraseMode.String(),
		"total_results", resp.TotalResults,
		"cache_hit", cached,
		"latency_ms", elapsed.Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:        query,
		Results:      resp.Results,
		Time:         fmt.Sprintf("%.4f", elapsed.Seconds()),
		Options:      opts,
		StemmedQuery: resp.StemmedQuery,
		TotalResults: resp.TotalResults,
		History:      []string{},
	})
}

func (h *Handler) track(ctx context.Context, req executor.Request, resp *executor.Response, cached bool, elapsed time.Duration, err error) {
	if h.tracker == nil {
		return
	}
	event := analytics.SearchEvent{
		Query:        req.Query,
		PhraseMode:   req.PhraseMode.String(),
		MatchInTitle: req.MatchInTitle,
		WithPageRank: req.WithPageRank,
		LatencyMs:    elapsed.Milliseconds(),
		CacheHit:     cached,
		Timestamp:    h.now().UTC(),
		RequestID:    middleware.GetRequestID(ctx),
	}
	if resp != nil {
		event.StemmedQuery = resp.StemmedQuery
		event.TotalResults = resp.TotalResults
	}
	event.Type = analytics.Classify(event.TotalResults, err)
	h.tracker.Track(event)
}

// ClearHistory exists for client compatibility; history is not kept.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) CheckDB(w http.ResponseWriter, r *http.Request) {
	n, err := h.index.WordCount(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("word count failed", "error", err)
		h.writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"wordList_count": n})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheDisabled) {
			h.logger.Error("cache invalidation failed", "error", err)
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err onto a status. Internal causes are not echoed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := http.StatusText(status)
	if status == http.StatusBadRequest {
		message = err.Error()
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
