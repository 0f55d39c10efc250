// Command analytics starts the standalone analytics aggregation service.
//
// It consumes search events from Kafka, aggregates them in memory (latency
// percentiles, zero-result queries, top queries, phrase-mode mix), snapshots
// the aggregate to the database and serves GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/middleware"
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
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, "analytics", analytics.HandleEvent(aggregator), cfg.Kafka.Topics.AnalyticsEvents)
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	checker := health.NewChecker()

	var snapshots analytics.SnapshotLister
	db, err := database.New(cfg)
	if err != nil {
		slog.Warn("database unavailable, snapshots disabled", "error", err)
		checker.RegisterPinger("database", nil, false)
	} else {
		defer db.Close()
		store := snapshot.NewStore(db, cfg.Analytics.SnapshotRetain)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare snapshot table", "error", err)
			os.Exit(1)
		}
		store.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
		snapshots = store
		checker.RegisterPinger("database", db, false)
	}

	h := analytics.NewHandler(aggregator, snapshots)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Get("/api/v1/analytics", h.Stats)
	r.Get("/api/v1/analytics/snapshots", h.Snapshots)
	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      r,
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
