// Command searcher serves the read-only search API over a prebuilt index.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/router"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/setup"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	rt, err := setup.Open(cfg, m)
	if err != nil {
		slog.Error("failed to initialise search engine", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	// A nil backend keeps the cache in pass-through mode.
	var backend cache.Backend
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			backend = redisClient
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache := cache.New(rt.Engine, backend, cfg.Redis.CacheTTL, m, cache.WithFlightTimeout(cfg.Search.QueryTimeout))

	var tracker handler.Tracker
	var analyticsH *analytics.Handler
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

		if queryCache.Enabled() {
			invalidations := kafka.NewConsumer(cfg.Kafka, "searcher-cache", queryCache.InvalidationHandler(),
				cfg.Kafka.Topics.IndexComplete, cfg.Kafka.Topics.CacheInvalidate)
			defer invalidations.Close()
			go func() {
				if err := invalidations.Start(ctx); err != nil {
					slog.Error("cache invalidation consumer stopped", "error", err)
				}
			}()
		}
	} else {
		aggregator := analytics.NewAggregator()
		tracker = aggregator
		analyticsH = analytics.NewHandler(aggregator, nil)
		slog.Info("kafka disabled, aggregating analytics in process")
	}

	checker := health.NewChecker()
	checker.RegisterPinger("index_store", rt.Store, true)
	if redisClient != nil {
		checker.RegisterPinger("redis", redisClient, false)
	} else {
		checker.RegisterPinger("redis", nil, false)
	}

	var limiter *middleware.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		defer limiter.Close()
	}

	h := handler.New(queryCache, rt.Engine, tracker, cfg.Search.DefaultPhraseDistance)
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(router.Deps{
			Search:    h,
			Analytics: analyticsH,
			Health:    checker,
			Metrics:   m,
			Timeout:   cfg.Server.WriteTimeout,
			Limiter:   limiter,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
