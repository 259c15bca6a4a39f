package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Vite dev server origins, allowed only outside production.
var devOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORSMiddleware lets the club site call the API from its own origins. With
// no configured origins in production the site is assumed to be same-origin
// and no CORS headers are sent.
func CORSMiddleware(allowedOrigins []string, isProduction bool) gin.HandlerFunc {
	origins := append([]string(nil), allowedOrigins...)
	if !isProduction {
		origins = append(origins, devOrigins...)
	}
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	handler := cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	})
	return func(c *gin.Context) {
		// Unlisted origins get no CORS headers; the route guards answer them.
		if origin := c.GetHeader("Origin"); origin != "" && !slices.Contains(origins, origin) {
			c.Next()
			return
		}
		handler(c)
	}
}
