// Package router wires the search service routes and applies the middleware
// chain (RequestID → CORS → Metrics → Timeout, plus RateLimit on /api).
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/middleware"
)

type Deps struct {
	Search    *handler.Handler
	Analytics *analytics.Handler
	Health    *health.Checker
	Metrics   *metrics.Metrics
	Timeout   time.Duration
	// Limiter throttles /api routes per client when set.
	Limiter *middleware.Limiter
}

// New builds the search service handler.
//
// Route table:
//
//	GET    /api/search
//	GET    /api/clear-history
//	GET    /api/check-db
//	GET    /api/v1/cache/stats
//	POST   /api/v1/cache/invalidate
//	GET    /api/v1/analytics               (when analytics is wired)
//	GET    /api/v1/analytics/snapshots     (when analytics is wired)
//	GET    /health/live
//	GET    /health/ready
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	if d.Timeout > 0 {
		r.Use(middleware.Timeout(d.Timeout))
	}

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(middleware.RateLimit(d.Limiter))
		}
		r.Get("/search", d.Search.Search)
		r.Get("/clear-history", d.Search.ClearHistory)
		r.Get("/check-db", d.Search.CheckDB)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/cache/stats", d.Search.CacheStats)
			r.Post("/cache/invalidate", d.Search.CacheInvalidate)
			if d.Analytics != nil {
				r.Get("/analytics", d.Analytics.Stats)
				r.Get("/analytics/snapshots", d.Analytics.Snapshots)
			}
		})
	})

	if d.Health != nil {
		r.Get("/health/live", d.Health.LiveHandler())
		r.Get("/health/ready", d.Health.ReadyHandler())
	}
	return r
}
