package middleware

import (
	"errors"
	"net/http"

	"cricket-club-backend/internal/delivery/http/response"
	"cricket-club-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error pushed with c.Error as {"error": msg}.
// Wrapped causes are logged, never sent.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.Internal(err)
		}

		if appErr.Code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("request_id", GetRequestID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Error(appErr.Err),
			)
		}

		if !c.Writer.Written() {
			response.Error(c, appErr.Code, appErr.Message)
		}
	}
}
