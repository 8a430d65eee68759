package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/big-blue22/keizibann/internal/ai"
	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/config"
	"github.com/big-blue22/keizibann/internal/handlers"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/preview"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/big-blue22/keizibann/internal/telemetry"
	"github.com/big-blue22/keizibann/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "keizibann-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== keizibann server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}
	defer func() {
		if err := telemetry.Shutdown(tp, 5*time.Second); err != nil {
			logger.WarnWithFields("Tracer shutdown failed", err)
		}
	}()

	redisClient := connectRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := openStore(cfg, redisClient)
	if err != nil {
		logger.FatalWithFields("Failed to open store", err)
	}

	var throttle views.Throttle
	if redisClient != nil {
		throttle = views.NewRedisThrottle(redisClient)
	} else {
		throttle = views.NewMemoryThrottle()
	}
	aggregator := views.NewAggregator(store, throttle, views.WithStoreTimeout(cfg.StoreTimeout))

	authService := auth.NewService([]byte(cfg.JWTSecret), cfg.AdminPassword, cfg.AdminPasswordHash, cfg.AdminTokenTTL)

	h := handlers.NewHandlers(store, aggregator, authService)

	aiClient, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		logger.WarnWithFields("AI client unavailable, labels disabled", err)
	} else if aiClient != nil {
		h.SetLabeler(aiClient)
	} else {
		logger.Log.Info("GEMINI_API_KEY not set, AI features disabled")
	}

	h.SetPreviewer(preview.NewFetcher())

	r := setupRouter(cfg, h, authService, redisClient)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("keizibann API listening", zap.String("port", cfg.Port), zap.String("store", store.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

// connectRedis returns nil when Redis is not configured or unreachable
func connectRedis(cfg *config.Config) *cache.RedisClient {
	if !cfg.RedisConfigured() {
		logger.Log.Info("Redis not configured, using local file store", zap.String("data_dir", cfg.DataDir))
		return nil
	}

	var (
		rc  *cache.RedisClient
		err error
	)
	if cfg.RedisURL != "" {
		rc, err = cache.NewRedisClientFromURL(cfg.RedisURL)
	} else {
		rc, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	}
	if err != nil {
		logger.WarnWithFields("Redis unreachable, using local file store", err)
		return nil
	}
	return rc
}

// openStore prefers Redis and serves reads from the data dir while Redis is down
func openStore(cfg *config.Config, rc *cache.RedisClient) (storage.Store, error) {
	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return files, nil
	}
	return storage.NewFallbackStore(storage.NewRedisStore(rc), files), nil
}
