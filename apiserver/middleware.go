package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiKeyMiddleware rejects every request whose X-API-Key header does not
// equal apiKey, returning the error envelope of spec.md §7. An empty apiKey
// rejects every request.
func apiKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || c.GetHeader("X-API-Key") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope("unauthorized", "missing or invalid X-API-Key"))
			return
		}
		c.Next()
	}
}

func errorEnvelope(code, detail string) gin.H {
	return gin.H{"error": code, "detail": detail}
}
