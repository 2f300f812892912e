package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/config"
	dbRedis "github.com/encounterhq/discovery/internal/db/redis"
	logpkg "github.com/encounterhq/discovery/internal/logger"
	"github.com/encounterhq/discovery/internal/metrics"
	"github.com/encounterhq/discovery/internal/ratelimit"
	analyticsrepo "github.com/encounterhq/discovery/internal/repository/analytics"
	experiencerepo "github.com/encounterhq/discovery/internal/repository/experience"
	"github.com/encounterhq/discovery/internal/repository/facetcache"
	searchrepo "github.com/encounterhq/discovery/internal/repository/search"
	chiTransport "github.com/encounterhq/discovery/internal/transport/chi"
	openaiProv "github.com/encounterhq/discovery/internal/transport/openai"
	analyticsuc "github.com/encounterhq/discovery/internal/usecase/analytics"
	discoveryuc "github.com/encounterhq/discovery/internal/usecase/discovery"
	expanduc "github.com/encounterhq/discovery/internal/usecase/expand"
	facetsuc "github.com/encounterhq/discovery/internal/usecase/facets"
	fusionuc "github.com/encounterhq/discovery/internal/usecase/fusion"
	similaruc "github.com/encounterhq/discovery/internal/usecase/similar"
	"github.com/encounterhq/discovery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting discovery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register service metrics explicitly (no init())
	metrics.RegisterServiceMetrics()

	embedder := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	generator := openaiProv.NewGenerator(&openaiProv.Config{
		APIKey:    cfg.Generation.APIKey,
		BaseURL:   cfg.Generation.BaseURL,
		ChatModel: cfg.Generation.Model,
		Provider:  cfg.Generation.Provider,
		Logger:    logger,
	})

	// Repositories
	searchRepo := searchrepo.New(store)
	experienceRepo := experiencerepo.New(store)
	facetCache := facetcache.New(store, time.Duration(cfg.Facets.CacheTTLSec)*time.Second)
	analyticsSink := analyticsrepo.New(store, cfg.Analytics.Stream)

	// Use case services
	recorder, err := analyticsuc.New(analyticsSink, cfg.Analytics.PoolSize, logger)
	if err != nil {
		logger.Fatal("Failed to create analytics recorder", zap.Error(err))
	}
	defer recorder.Close()

	fusionSvc := fusionuc.New(searchRepo, experienceRepo, embedder, cfg.Search.RRFK, logger)
	expandSvc := expanduc.New(generator, time.Duration(cfg.Generation.TimeoutSec)*time.Second, logger)
	discoverySvc := discoveryuc.New(fusionSvc, expandSvc, recorder)
	similarSvc := similaruc.New(experienceRepo, similaruc.Config{
		Threshold: cfg.Similar.Threshold,
		TopN:      cfg.Similar.TopN,
		PoolSize:  cfg.Similar.PoolSize,
	})
	facetsSvc := facetsuc.New(experienceRepo, facetCache, cfg.Facets.FetchLimit, logger)

	// Per-endpoint-class rate governors
	var memoryGovernors []*ratelimit.Memory
	newGovernor := func(class string, cl config.ClassLimit) ratelimit.Governor {
		window := time.Duration(cl.WindowSec) * time.Second
		if cfg.RateLimit.Backend == "redis" {
			return ratelimit.NewRedis(store, "discovery:rl:"+class+":", cl.Limit, window)
		}
		memory := ratelimit.NewMemory(cl.Limit, window)
		memoryGovernors = append(memoryGovernors, memory)
		return memory
	}
	defer func() {
		for _, g := range memoryGovernors {
			g.Close()
		}
	}()

	server := chiTransport.NewServer(discoverySvc, similarSvc, facetsSvc, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r,
		chiTransport.RateLimitMiddleware(newGovernor("search", cfg.RateLimit.Search), "search", logger),
		chiTransport.RateLimitMiddleware(newGovernor("discovery", cfg.RateLimit.Discovery), "discovery", logger),
		chiTransport.RateLimitMiddleware(newGovernor("facets", cfg.RateLimit.Facets), "facets", logger),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
