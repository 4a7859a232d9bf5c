// Package middleware contains Gin middleware functions.
// Middleware in Gin works like Rack middleware in Ruby or Express middleware in JS:
// each one calls c.Next() to proceed or c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextKeyAPIKey is where the authenticated key is stored for downstream middleware.
const contextKeyAPIKey = "api_key"

// requestKey reads the key from the X-API-Key header or the api_key query param.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.Query("api_key")
}

// keySet builds a lookup set. Go has no set type; a map to the zero-size
// struct{} is the usual stand-in.
func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// APIKeyAuth returns middleware that validates API keys.
// With no keys configured the API is open and every request passes.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	allowed := keySet(validKeys)

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if _, ok := allowed[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}

// AdminKeyAuth returns middleware for admin-only endpoints.
// Unlike APIKeyAuth it never opens up: no admin keys means no admin access.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	allowed := keySet(adminKeys)

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing admin API key",
			})
			return
		}

		if _, ok := allowed[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid admin API key",
			})
			return
		}

		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}
