package main

import (
	"time"

	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/config"
	"github.com/big-blue22/keizibann/internal/handlers"
	"github.com/big-blue22/keizibann/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRouter(cfg *config.Config, h *handlers.Handlers, authService auth.AdminAuthenticator, redisClient *cache.RedisClient) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware(serviceName))
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.SpanEnrichmentMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.HeaderRequestID, middleware.HeaderCorrelationID}
	corsConfig.ExposeHeaders = []string{"Retry-After", middleware.HeaderRequestID, "X-Cache"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/share-target", h.ShareTarget)

	writeLimit := middleware.PostRateLimitConfig()
	writeLimit.Limit = cfg.CreateRateLimit
	writeLimit.Window = cfg.CreateRateWindow

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitSmart(middleware.DefaultRateLimitConfig()))
	{
		api.GET("/posts", gzip.Gzip(gzip.DefaultCompression), h.GetPosts)
		api.POST("/posts", middleware.RateLimitSmart(writeLimit), h.CreatePost)
		api.GET("/posts/:id", h.GetPost)

		api.POST("/posts/:id/view", h.RecordView)
		api.POST("/views", h.RecordViewLegacy)

		api.GET("/posts/:id/comments", h.GetComments)
		api.POST("/posts/:id/comments", middleware.RateLimitSmart(writeLimit), h.CreateComment)

		api.POST("/admin/login", middleware.RateLimitSmart(middleware.LoginRateLimitConfig()), h.AdminLogin)

		aiGroup := api.Group("/ai", middleware.RateLimitSmart(middleware.AIRateLimitConfig()))
		aiGroup.POST("/labels", h.ExtractLabels)
		aiGroup.POST("/refine", h.RefineContent)

		previewCache := middleware.ResponseCacheMiddleware(redisClient, 24*time.Hour)
		api.GET("/preview", previewCache, h.GetPreview)
		api.GET("/title", previewCache, h.GetTitle)

		admin := api.Group("", middleware.RequireAdmin(authService))
		admin.DELETE("/posts/:id", h.DeletePost)
		admin.PUT("/posts/:id/preview", h.RegeneratePreview)
		admin.DELETE("/posts/:id/comments/:commentId", h.DeleteComment)
	}

	return r
}
