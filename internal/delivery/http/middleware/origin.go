package middleware

import (
	"net/http"
	"slices"
	"strings"

	"cricket-club-backend/internal/delivery/http/response"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const msgForbiddenOrigin = "Forbidden origin"

// IsAllowedOrigin applies the contact form's origin policy. An empty
// allow-list admits everything. Origin must match exactly; without Origin,
// Referer must equal an allowed origin or start with it followed by "/".
func IsAllowedOrigin(allowed []string, origin, referer string) bool {
	if len(allowed) == 0 {
		return true
	}
	if origin != "" {
		return slices.Contains(allowed, origin)
	}
	if referer != "" {
		for _, o := range allowed {
			if referer == o || strings.HasPrefix(referer, o+"/") {
				return true
			}
		}
	}
	return false
}

// OriginGuard rejects cross-site submissions with 403.
func OriginGuard(allowed []string, secLog *security.SecurityLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if !IsAllowedOrigin(allowed, origin, referer) {
			m.IncSubmission(metrics.OutcomeForbiddenOrigin)
			secLog.LogOriginBlocked(c.Request.Context(), origin, referer, ClientKey(c), GetRequestID(c))
			response.AbortWithError(c, http.StatusForbidden, msgForbiddenOrigin)
			return
		}
		c.Next()
	}
}
