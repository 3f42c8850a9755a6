// Command tracker serves transfer news search with per-source trust scores,
// voting on unscored sources and on-demand promotion.
//
// Usage:
//
//	go run ./cmd/tracker [-config configs/development.yaml]
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

	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/api"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/news"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/search"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/resilience"
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
	slog.Info("starting transfer news tracker",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	backend, err := storage.Open(cfg.Storage, cfg.Postgres)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	if cfg.Storage.SeedFile != "" {
		seed, err := trust.LoadSeedFile(cfg.Storage.SeedFile)
		if err != nil {
			slog.Error("failed to load seed file", "path", cfg.Storage.SeedFile, "error", err)
			os.Exit(1)
		}
		seeded, err := trust.Seed(ctx, backend, seed)
		if err != nil {
			slog.Error("failed to seed trust levels", "error", err)
			os.Exit(1)
		}
		slog.Info("trust seed checked", "seeded", seeded, "domains", len(seed))
	}

	var collector *analytics.Collector
	opts := []trust.Option{trust.WithMetrics(m)}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.TrustEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize)
		collector.Start(ctx)
		defer collector.Close()
		opts = append(opts, trust.WithNotifier(collector))
		slog.Info("trust events enabled", "topic", cfg.Kafka.Topics.TrustEvents)
	}
	svc := trust.NewService(backend, opts...)

	checker := health.NewChecker()
	checker.Register("storage", health.PingCheck(svc.Ping, health.StatusDown))

	onBreaker := func(name string, to resilience.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	}
	var fetcher news.Fetcher = news.NewClient(cfg.News, onBreaker)

	var cache *news.Cache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			checker.Register("redis", func(context.Context) health.ComponentHealth {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
			})
		} else {
			defer redisClient.Close()
			cache = news.NewCache(fetcher, redisClient, cfg.Redis.CacheTTL, m)
			fetcher = cache
			checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var tracker search.Tracker
	if collector != nil {
		tracker = collector
	}
	searcher := search.New(fetcher, svc, tracker, m, search.Options{
		Timezone:      cfg.News.Timezone,
		SnippetLength: cfg.News.SnippetLength,
		FetchTimeout:  cfg.News.Timeout * time.Duration(max(cfg.News.MaxAttempts, 1)),
	})

	var cacheAdmin api.CacheAdmin
	if cache != nil {
		cacheAdmin = cache
	}
	h := api.NewHandler(searcher, svc, cacheAdmin, api.Options{
		DefaultMinTrust: cfg.Trust.DefaultMinTrust,
		VoteThreshold:   cfg.Trust.VoteThreshold,
	})
	if cfg.Server.AdminToken == "" {
		slog.Warn("admin token not set, admin routes are unauthenticated")
	}
	router := api.NewRouter(h, checker, m,
		middleware.NewIPRateLimiter(cfg.RateLimit.VotesPerSecond, cfg.RateLimit.Burst),
		api.RouterConfig{
			RequestTimeout: cfg.Server.RequestTimeout,
			AdminToken:     cfg.Server.AdminToken,
			AllowOrigins:   cfg.Server.AllowOrigins,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
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

	slog.Info("tracker listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("tracker stopped")
}
