package throttle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"call-manager/internal/auth"
	"call-manager/pkg/logger"
)

const (
	inflightKeyPrefix = "call-manager:inflight:"

	// slotTTL must exceed the longest provider call.
	slotTTL        = 2 * time.Minute
	releaseTimeout = 2 * time.Second
)

// ConcurrencyCap limits in-flight API requests per caller across all instances.
// The caller is the authenticated client id, or the client IP when auth is off.
// Redis errors fail open: the request proceeds and a warning is logged.
func ConcurrencyCap(rdb redis.Scripter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := inflightKey(c)
		log := logger.FromGin(c)

		ok, err := Acquire(c.Request.Context(), rdb, key, limit, slotTTL)
		if err != nil {
			log.Warn("concurrency cap unavailable; allowing request", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many in-flight requests"})
			return
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), releaseTimeout)
			defer cancel()
			if err := Release(ctx, rdb, key); err != nil {
				log.Warn("concurrency cap release failed", "err", err)
			}
		}()
		c.Next()
	}
}

func inflightKey(c *gin.Context) string {
	if id, err := auth.ClientID(c.Request.Context()); err == nil {
		return inflightKeyPrefix + "client:" + id
	}
	return inflightKeyPrefix + "ip:" + c.ClientIP()
}
