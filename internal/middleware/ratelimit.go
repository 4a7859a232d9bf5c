package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit returns per-client token-bucket rate limiting middleware.
// Clients are identified by the API key set by APIKeyAuth, or by client IP
// when the API is open. Each client's bucket fills at rps tokens/sec up to burst.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	// The closure below captures mu and limiters, so they live as long as the
	// handler does. Go maps are not safe for concurrent use, hence the mutex.
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		client := "ip:" + c.ClientIP()
		if key := c.GetString(contextKeyAPIKey); key != "" {
			client = "key:" + key
		}

		mu.Lock()
		limiter, exists := limiters[client]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[client] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
