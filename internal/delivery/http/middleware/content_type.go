package middleware

import (
	"net/http"
	"strings"

	"cricket-club-backend/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

const msgUnsupportedMediaType = "Content-Type must be application/json"

// RequireJSON rejects requests whose Content-Type does not mention
// application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.Contains(ct, "application/json") {
			response.AbortWithError(c, http.StatusUnsupportedMediaType, msgUnsupportedMediaType)
			return
		}
		c.Next()
	}
}
