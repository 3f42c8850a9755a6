// Command analytics starts the standalone trust analytics service.
//
// It consumes trust events (votes, registrations, promotions, searches) from
// Kafka, aggregates them in memory and serves them at GET /api/v1/analytics.
// With analytics.persistSnapshots set, stats are also written to PostgreSQL
// periodically and listed at GET /api/v1/analytics/snapshots.
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
	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.TrustEvents, analytics.HandleEvent(agg))
	defer consumer.Close()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.TrustEvents)

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	var lister analytics.SnapshotLister
	if cfg.Analytics.PersistSnapshots {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store, err := aggregator.NewStore(ctx, db)
		if err != nil {
			slog.Error("failed to prepare snapshot store", "error", err)
			os.Exit(1)
		}
		store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
		lister = store
		checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDegraded))
	}

	h := analytics.NewHandler(agg, lister)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
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
