package middleware

import (
	"net"
	"strings"

	"cricket-club-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// ClientKey identifies the caller for rate limiting: the first
// X-Forwarded-For entry, else the socket address host, else "unknown".
// X-Forwarded-For is taken as-is, so the deployment's edge proxy must
// overwrite it.
func ClientKey(c *gin.Context) string {
	if v, ok := c.Get(string(domain.KeyClientIP)); ok {
		if s, _ := v.(string); s != "" {
			return s
		}
	}

	key := clientKey(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr)
	c.Set(string(domain.KeyClientIP), key)
	return key
}

func clientKey(forwardedFor, remoteAddr string) string {
	if first, _, _ := strings.Cut(forwardedFor, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
			return host
		}
		return remoteAddr
	}
	return "unknown"
}
