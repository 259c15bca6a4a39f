package v1

import (
	"io"
	"net/http"

	"cricket-club-backend/internal/delivery/http/middleware"
	"cricket-club-backend/internal/delivery/http/response"
	"cricket-club-backend/internal/domain"
	"cricket-club-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// MaxContactBodyBytes caps the submission body.
const MaxContactBodyBytes = 1 << 20

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// NewContactHandler registers POST /contact on each group behind guards.
func NewContactHandler(contactUC domain.ContactUsecase, guards []gin.HandlerFunc, groups ...*gin.RouterGroup) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	chain := append(append([]gin.HandlerFunc(nil), guards...), handler.SubmitContact)
	for _, g := range groups {
		g.POST("/contact", chain...)
	}
}

// SubmitContact reads the raw body and hands it to the submission pipeline.
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxContactBodyBytes))
	if err != nil {
		// Oversized and truncated bodies are both unparseable.
		_ = c.Error(apperror.New(http.StatusBadRequest, "Invalid JSON body", err))
		return
	}

	meta := domain.ContactMeta{
		ClientIP:  middleware.ClientKey(c),
		UserAgent: c.Request.UserAgent(),
		RequestID: middleware.GetRequestID(c),
	}
	if err := h.contactUC.SendContactMessage(c.Request.Context(), body, meta); err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c)
}
