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

	"github.com/hyperlocal-cloud/bazaar/internal/config"
	dbRedis "github.com/hyperlocal-cloud/bazaar/internal/db/redis"
	"github.com/hyperlocal-cloud/bazaar/internal/imaging"
	logpkg "github.com/hyperlocal-cloud/bazaar/internal/logger"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
	historyrepo "github.com/hyperlocal-cloud/bazaar/internal/repository/history"
	recordrepo "github.com/hyperlocal-cloud/bazaar/internal/repository/record"
	vectorrepo "github.com/hyperlocal-cloud/bazaar/internal/repository/vector"
	"github.com/hyperlocal-cloud/bazaar/internal/transport/assemblyai"
	chiTransport "github.com/hyperlocal-cloud/bazaar/internal/transport/chi"
	openaiClient "github.com/hyperlocal-cloud/bazaar/internal/transport/openai"
	"github.com/hyperlocal-cloud/bazaar/internal/transport/rabbitmq"
	healthuc "github.com/hyperlocal-cloud/bazaar/internal/usecase/health"
	ingestuc "github.com/hyperlocal-cloud/bazaar/internal/usecase/ingest"
	mediauc "github.com/hyperlocal-cloud/bazaar/internal/usecase/media"
	retrievaluc "github.com/hyperlocal-cloud/bazaar/internal/usecase/retrieval"
	"github.com/hyperlocal-cloud/bazaar/internal/version"
)

func main() {
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

	logger.Info("Starting bazaar API server",
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

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	// External transports
	llm := openaiClient.New(&openaiClient.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		EmbedModel:   cfg.LLM.EmbedModel,
		GenTimeout:   time.Duration(cfg.LLM.GenTimeoutSec) * time.Second,
		EmbedTimeout: time.Duration(cfg.LLM.EmbTimeoutSec) * time.Second,
		Logger:       logger,
	})
	stt := assemblyai.New(&assemblyai.Config{
		APIKey:      cfg.STT.APIKey,
		BaseURL:     cfg.STT.BaseURL,
		Language:    cfg.STT.Language,
		WaitTimeout: time.Duration(cfg.STT.WaitTimeoutSec) * time.Second,
		Logger:      logger,
	})

	publisher, err := rabbitmq.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
	if err != nil {
		logger.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	recordRepo := recordrepo.New(store, cfg.Database.KeyPrefix)
	vectorRepo := vectorrepo.New(store, cfg.LLM.Dimensions).WithHNSW(vectorrepo.HNSWConfig{
		M:           cfg.Database.HNSWM,
		EFConstruct: cfg.Database.HNSWEFConstruct,
	})
	historyRepo := historyrepo.New(store, cfg.Database.KeyPrefix)

	// Use case services
	mediaSvc := mediauc.New(stt, imaging.NewService(), llm, publisher)
	ingestSvc := ingestuc.New(mediaSvc, llm, llm, recordRepo, vectorRepo, publisher, cfg.Ingest.Workers)
	retrievalSvc := retrievaluc.New(llm, llm, vectorRepo, recordRepo, historyRepo)
	healthSvc := healthuc.New(store, llm)

	// Background subscriber mirrors the full event stream for cache and
	// analytics side effects. Runs for the life of the process.
	go runConsumer(cfg, logger)

	server := chiTransport.NewServer(ingestSvc, retrievalSvc, recordRepo, publisher, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

// runConsumer connects the catch-all queue and logs every event. A broker
// outage at startup is logged, not fatal: the HTTP path works without it.
func runConsumer(cfg config.Config, logger *zap.Logger) {
	consumer, err := rabbitmq.NewConsumer(cfg.Broker.URL, cfg.Broker.Exchange, cfg.Broker.Queue, logger)
	if err != nil {
		logger.Error("Failed to start consumer", zap.Error(err))
		return
	}
	defer consumer.Close()

	err = consumer.Run(func(routingKey string, payload []byte) {
		logger.Info("bus event",
			zap.String("routing_key", routingKey),
			zap.Int("bytes", len(payload)),
		)
	})
	if err != nil {
		logger.Error("Consumer stopped", zap.Error(err))
	}
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
