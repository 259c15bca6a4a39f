package middleware

import (
	"net/http"
	"strconv"
	"time"

	"cricket-club-backend/internal/delivery/http/response"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/ratelimit"
	"cricket-club-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgTooManyRequests = "Too many requests. Try again later."

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limiter ratelimit.Limiter
	// Custom key extractor (default: ClientKey)
	KeyFunc func(*gin.Context) string

	SecurityLogger *security.SecurityLogger
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// RateLimitMiddleware rejects callers that exhausted their window with 429.
// Store errors let the request through.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientKey
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		d, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			config.Logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining()))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(time.Until(d.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			config.Metrics.IncRateLimitBlock()
			config.Metrics.IncSubmission(metrics.OutcomeRateLimited)
			config.SecurityLogger.LogRateLimitTriggered(c.Request.Context(), key, c.GetHeader("User-Agent"), GetRequestID(c), c.FullPath())

			response.AbortWithError(c, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}

		c.Next()
	}
}
