package main

import (
	"log/slog"

	"call-manager/internal/httpapi"
	"call-manager/internal/rbac"
	"call-manager/internal/throttle"
	"call-manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Handlers httpapi.Handlers

	// AuthMW is nil when the API runs unauthenticated.
	AuthMW gin.HandlerFunc

	Limiter *throttle.Limiter

	// Redis is nil when the in-flight cap is disabled.
	Redis       redis.Scripter
	MaxInFlight int

	CORSOrigins []string
	Version     string
}

func newRouter(log *slog.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.SecureHeaders())
	r.Use(httpapi.CORS(d.CORSOrigins))
	r.NoRoute(httpapi.NotFound)

	registerRoutes(r, d)
	return r
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/health", httpapi.Health(d.Version))

	api := r.Group("/api/batch-calling")
	if d.Limiter != nil {
		api.Use(throttle.RateLimit(d.Limiter))
	}
	if d.AuthMW != nil {
		api.Use(d.AuthMW)
	}
	if d.Redis != nil {
		api.Use(throttle.ConcurrencyCap(d.Redis, d.MaxInFlight))
	}

	write := requireRoles(d, rbac.WriteRoles...)
	read := requireRoles(d, rbac.ReadRoles...)

	api.POST("/submit", append(write, d.Handlers.SubmitBatch)...)
	api.POST("/:batchId/cancel", append(write, d.Handlers.CancelBatch)...)
	api.GET("/:batchId", append(read, d.Handlers.GetBatch)...)
}

// requireRoles returns role checks only when callers are authenticated.
func requireRoles(d routeDeps, allowed ...string) []gin.HandlerFunc {
	if d.AuthMW == nil {
		return nil
	}
	return []gin.HandlerFunc{rbac.RequireAnyRole(allowed...)}
}
