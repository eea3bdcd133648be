package middleware

import (
	"net/http"
	"time"

	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

// RateLimiter throttles requests per key with httprate's sliding window
// counter. The counter lives in process memory.
type RateLimiter struct {
	limit   int
	limiter *httprate.RateLimiter
}

// NewRateLimiter allows limit requests per key within window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		limiter: httprate.NewRateLimiter(limit, window),
	}
}

// Limit returns the number of requests allowed per window
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per keyFunc(c). httprate sets the
// X-RateLimit-* headers; an exhausted key gets 429 with RATE_LIMITED.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.limiter.OnLimit(c.Writer, c.Request, keyFunc(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
