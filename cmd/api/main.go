// Package main is the entry point for the feed API server.
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

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/campushive/campushive/internal/api"
	"github.com/campushive/campushive/internal/cache"
	"github.com/campushive/campushive/internal/config"
	"github.com/campushive/campushive/internal/feed"
	"github.com/campushive/campushive/internal/health"
	"github.com/campushive/campushive/internal/invalidation"
	"github.com/campushive/campushive/internal/middleware"
	"github.com/campushive/campushive/internal/post"
	"github.com/campushive/campushive/internal/ranking"
	"github.com/campushive/campushive/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("CampusHive Feed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summary := cfg.LogSummary()
	attrs := make([]any, 0, len(summary)*2)
	for k, v := range summary {
		attrs = append(attrs, k, v)
	}
	logger.Info("configuration loaded", attrs...)

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "campushive-feed",
		Enabled:      cfg.OtelEndpoint != "",
		Environment:  cfg.Env,
		ExporterType: tracing.ExporterOTLPGRPC,
		OTLPEndpoint: cfg.OtelEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpMetrics := middleware.NewMetrics()
	cacheMetrics := cache.NewMetrics()
	invalidationMetrics := invalidation.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{httpMetrics, cacheMetrics, invalidationMetrics} {
		if err := m.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Cache store
	fp, err := cache.NewFingerprinter()
	if err != nil {
		logger.Error("failed to initialize fingerprinter", "error", err)
		os.Exit(1)
	}

	var (
		store        cache.Store
		redisChecker api.HealthChecker
	)
	if cfg.CachingEnabled() {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = cache.NewRedisStore(redisClient, time.Duration(cfg.RedisOpTimeoutMS)*time.Millisecond)
		redisChecker = health.NewRedisChecker(redisClient)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}()
	} else {
		logger.Warn("no redis address configured, caching disabled")
	}

	// Ranking weights, optionally calibrated from file
	weights, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to defaults and logged why.
		logger.Warn("running with default ranking weights", "error", err)
	}

	// Candidate source. The in-memory source stands in for the query
	// layer; deployments with a real upstream swap in their own
	// CandidateSource implementation here.
	source := post.NewInMemorySource()

	orchestrator := feed.NewOrchestrator(source, store, fp, weights, cacheMetrics)

	// Invalidation: mutation events arrive over NATS and evict cache
	// entries. Without NATS, staleness is bounded by TTLs alone.
	var natsChecker api.HealthChecker
	if cfg.InvalidationEnabled() && store != nil {
		natsConn, err := nats.Connect(cfg.NatsURL,
			nats.Name("campushive-feed"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer natsConn.Close()
		natsChecker = health.NewNatsChecker(natsConn)

		manager := invalidation.NewManager(store, fp, invalidationMetrics, invalidation.DefaultEvictTimeout)
		subscriber := invalidation.NewSubscriber(natsConn, manager)
		if err := subscriber.Start(); err != nil {
			logger.Error("failed to subscribe to mutation events", "error", err)
			os.Exit(1)
		}
		defer subscriber.Close()
	} else if cfg.InvalidationEnabled() {
		logger.Warn("nats configured but caching disabled, skipping invalidation subscriber")
	} else {
		logger.Warn("no nats url configured, cache invalidation relies on TTLs")
	}

	// Routes
	feedHandlers := api.NewFeedHandlers(orchestrator)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		RedisChecker: redisChecker,
		NatsChecker:  natsChecker,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/feed", feedHandlers.GetFeed)
	mux.HandleFunc("GET /v1/posts/{id}", feedHandlers.GetPost)
	mux.HandleFunc("GET /health", healthHandlers.Health)
	mux.HandleFunc("GET /ready", healthHandlers.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Apply middleware: RequestID -> Logging -> Metrics, with otelhttp
	// outermost so every request gets a server span.
	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = otelhttp.NewHandler(handler, "campushive-feed")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Warn("failed to shut down tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
