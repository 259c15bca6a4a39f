package v1

import (
	"errors"
	"net/http"

	"cricket-club-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type SquadHandler struct {
	squadUC domain.SquadUsecase
}

func NewSquadHandler(public *gin.RouterGroup, squadUC domain.SquadUsecase) {
	handler := &SquadHandler{squadUC: squadUC}
	public.GET("/squad", handler.GetSquad)
}

// GetSquad proxies the roster sheet, keeping its status and body.
func (h *SquadHandler) GetSquad(c *gin.Context) {
	sheet, err := h.squadUC.FetchSquad(c.Request.Context())
	if err != nil {
		msg := err.Error()
		if errors.Is(err, domain.ErrSquadNotConfigured) {
			msg = domain.ErrSquadNotConfigured.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msg})
		return
	}

	c.Data(sheet.Status, "application/json; charset=utf-8", sheet.Body)
}
