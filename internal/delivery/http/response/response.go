package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the shape of every contact error.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends {"ok":true}.
func OK(c *gin.Context) {
	c.JSON(200, gin.H{"ok": true})
}

// Error sends {"error": message}.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorBody{Error: message})
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorBody{Error: message})
}

// Success sends a status payload with the request id attached.
func Success(c *gin.Context, code int, data map[string]string) {
	out := gin.H{}
	for k, v := range data {
		out[k] = v
	}
	if reqID := c.GetString("RequestID"); reqID != "" {
		out["request_id"] = reqID
	}
	c.JSON(code, out)
}
